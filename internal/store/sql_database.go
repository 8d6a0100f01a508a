package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/migrations"
)

// DB wraps a database connection with the dialect-specific migration and
// error classification.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	migrate            func(*sql.DB) error
	logger             *logger.Logger
}

// ErrorClassificator tells retryable database errors apart.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// Migrate applies the embedded schema of the connection's dialect.
func (db *DB) Migrate() error {
	if db.migrate == nil {
		return fmt.Errorf("migration error: %w", migrations.ErrNilDB)
	}
	return db.migrate(db.DB)
}

// Retryable reports whether err is a transient database failure.
func (db *DB) Retryable(err error) bool {
	if db.errorClassificator == nil {
		return false
	}
	return db.errorClassificator.Classify(err) == Retryable
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}
