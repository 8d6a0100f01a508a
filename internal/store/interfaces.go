package store

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// UserRepository persists record store accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// RecordRepository persists containers and their encrypted records. Every
// method is scoped to the owning user.
type RecordRepository interface {
	// CreateContainer creates the container; an existing one is left as is.
	CreateContainer(ctx context.Context, userID int64, container string) error
	// DeleteContainer removes the container with its records. A missing
	// container returns ErrContainerNotFound.
	DeleteContainer(ctx context.Context, userID int64, container string) error
	// Modify applies saves, then deletes, each in its own transaction.
	Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) ([]models.ItemResult, error)
	Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error)
	FetchMetadata(ctx context.Context, userID int64, container string, recordIDs []string) ([]models.RecordMetadata, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}
