package store

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
)

// Storages bundles the server repositories over one Postgres connection.
type Storages struct {
	UserRepository   UserRepository
	RecordRepository RecordRepository

	db *DB
}

// NewStorages connects to Postgres, applies migrations and builds the
// repositories.
func NewStorages(ctx context.Context, cfg config.DB, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewStorages").Msg("error applying migrations")
		db.Close()
		return nil, err
	}

	return newStorages(db, log), nil
}

func newStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		UserRepository:   NewUserRepository(db, log),
		RecordRepository: NewRecordRepository(db, log),
		db:               db,
	}
}

// PingContext checks the database connection. The health service polls it.
func (s *Storages) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Storages) Close() error {
	return s.db.Close()
}
