package engine

import (
	"context"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/crypto"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/engine_mock.go -package=mock

// RemoteRecordStore is the remote side of the sync. Errors are wrapped with
// the sentinels of package retry and may carry a min-retry hint.
type RemoteRecordStore interface {
	// CreateContainer creates the container. Creating an existing container
	// succeeds.
	CreateContainer(ctx context.Context, container string) error
	// DeleteContainer removes the container and every record in it.
	DeleteContainer(ctx context.Context, container string) error
	// Modify applies saves and deletes. Each save is conditional on its
	// change tag. The result has one entry per record id.
	Modify(ctx context.Context, container string, req models.ModifyRequest) ([]models.ItemResult, error)
	// Query returns one page of records, newest first.
	Query(ctx context.Context, container string, q models.RecordQuery) (models.RecordPage, error)
	// FetchMetadata returns the metadata of the records that exist.
	FetchMetadata(ctx context.Context, container string, recordIDs []string) ([]models.RecordMetadata, error)
}

// LocalQueueStore is the local entity database with its upload queue,
// remote metadata cache and persisted sync flags.
type LocalQueueStore interface {
	// FetchBatch returns up to limit queue rows of the first subkind in
	// subKinds that has any.
	FetchBatch(ctx context.Context, subKinds []models.SubKind, limit int) (models.QueueBatch, error)
	// UpdateRows commits an upload pass in one transaction.
	UpdateRows(ctx context.Context, update models.QueueUpdate) error
	QueueCount(ctx context.Context, subKind models.SubKind) (int, error)

	// OldestDownloaded returns the download bookmark of subKind, or nil
	// when nothing was downloaded yet.
	OldestDownloaded(ctx context.Context, subKind models.SubKind) (*time.Time, error)
	// SaveDownloaded stores downloaded entities and their metadata without
	// enqueueing them.
	SaveDownloaded(ctx context.Context, entities []models.DownloadedEntity) error
	// EnqueueUnsynced enqueues entities of subKind the remote lacks or
	// holds an older version of. It returns how many were enqueued.
	EnqueueUnsynced(ctx context.Context, subKind models.SubKind) (int, error)

	LoadFlags(ctx context.Context, domain string, subKinds []models.SubKind) (models.SyncFlags, error)
	SetEnabled(ctx context.Context, domain string, enabled bool) error
	SetContainerCreated(ctx context.Context, domain string, created bool) error
	MarkDownloaded(ctx context.Context, domain string, subKind models.SubKind) error
	// ClearCloudState forgets everything known about the remote container:
	// metadata, download flags and the container flag.
	ClearCloudState(ctx context.Context, domain string, subKinds []models.SubKind) error
}

// Codec encrypts entities into record payloads and back.
type Codec interface {
	Encode(entity models.Entity, stats models.SizeStats) (crypto.Encoded, error)
	Decode(kind models.SubKind, ciphertext []byte) (models.Entity, error)
}
