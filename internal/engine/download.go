package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/crypto"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// DefaultPageSize is the page size after the ramp-up pages.
const DefaultPageSize = 8

// rampUp are the sizes of the first pages. Small first pages show the
// newest records quickly.
var rampUp = []int{1, 2, 3, 4}

// remoteTimeResolution is the precision of record creation times on the
// remote store.
const remoteTimeResolution = time.Microsecond

// DownloadProgressFunc receives the number of records downloaded so far for
// sk and the oldest creation time seen.
type DownloadProgressFunc func(sk models.SubKind, downloaded int, oldest time.Time)

// DownloadPipeline pulls the records of a domain from the remote store,
// newest first, resuming from the persisted bookmark.
type DownloadPipeline struct {
	domain    Domain
	container string
	recordKey []byte
	pageSize  int

	local  LocalQueueStore
	remote RemoteRecordStore
	codec  Codec
	logger *logger.Logger
}

// NewDownloadPipeline creates a download pipeline. A non-positive pageSize
// uses DefaultPageSize.
func NewDownloadPipeline(domain Domain, container string, recordKey []byte, pageSize int,
	local LocalQueueStore, remote RemoteRecordStore, codec Codec, log *logger.Logger) *DownloadPipeline {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &DownloadPipeline{
		domain:    domain,
		container: container,
		recordKey: recordKey,
		pageSize:  pageSize,
		local:     local,
		remote:    remote,
		codec:     codec,
		logger:    log,
	}
}

func (p *DownloadPipeline) limit(page int) int {
	if page < len(rampUp) {
		return min(rampUp[page], p.pageSize)
	}
	return p.pageSize
}

// Run downloads every record of sk older than the bookmark. When the
// cursor is exhausted it marks the subkind downloaded and enqueues local
// entities the remote lacks. It returns the number of stored entities.
func (p *DownloadPipeline) Run(ctx context.Context, sk models.SubKind, progress DownloadProgressFunc) (int, error) {
	log := p.logger.WithDomain(p.domain.Name, "download")

	bookmark, err := p.local.OldestDownloaded(ctx, sk)
	if err != nil {
		return 0, fmt.Errorf("read bookmark: %w", err)
	}

	q := models.RecordQuery{SubKind: sk}
	if bookmark != nil {
		// records sharing the bookmark's timestamp may not all be stored yet;
		// storing one twice is harmless
		before := bookmark.Add(remoteTimeResolution)
		q.CreatedBefore = &before
	}
	var (
		total  int
		oldest time.Time
	)
	if bookmark != nil {
		oldest = *bookmark
	}

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		q.Limit = p.limit(page)
		result, err := p.remote.Query(ctx, p.container, q)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return total, ctxErr
		}
		if err != nil {
			return total, fmt.Errorf("query %s page %d: %w", sk, page, err)
		}

		decoded := p.decode(sk, result.Records)
		if len(decoded) > 0 {
			if err := p.local.SaveDownloaded(ctx, decoded); err != nil {
				return total, fmt.Errorf("save downloaded: %w", err)
			}
		}
		for _, d := range decoded {
			if oldest.IsZero() || d.Metadata.Record.CreatedAt.Before(oldest) {
				oldest = d.Metadata.Record.CreatedAt
			}
		}
		total += len(decoded)
		progress(sk, total, oldest)

		if result.Cursor == "" {
			break
		}
		q.Cursor = result.Cursor
	}

	if err := p.local.MarkDownloaded(ctx, p.domain.Name, sk); err != nil {
		return total, fmt.Errorf("mark downloaded: %w", err)
	}
	enqueued, err := p.local.EnqueueUnsynced(ctx, sk)
	if err != nil {
		return total, fmt.Errorf("enqueue unsynced: %w", err)
	}

	log.Info().Str("sub_kind", string(sk)).Int("downloaded", total).Int("enqueued", enqueued).
		Msg("initial download finished")
	return total, nil
}

// decode turns records into entities. Records that fail to decrypt, decode
// or match their record id are logged and skipped.
func (p *DownloadPipeline) decode(sk models.SubKind, records []models.Record) []models.DownloadedEntity {
	log := p.logger.WithDomain(p.domain.Name, "download")

	out := make([]models.DownloadedEntity, 0, len(records))
	for _, rec := range records {
		entity, err := p.codec.Decode(sk, rec.Ciphertext)
		if err != nil {
			log.Warn().Err(err).Str("func", "*DownloadPipeline.decode").Str("record_id", rec.RecordID).
				Msg("skipping undecodable record")
			continue
		}
		if crypto.RecordID(p.recordKey, entity.ID) != rec.RecordID {
			log.Warn().Str("func", "*DownloadPipeline.decode").Str("record_id", rec.RecordID).
				Msg("skipping record with mismatched id")
			continue
		}

		out = append(out, models.DownloadedEntity{
			Entity: entity,
			Metadata: models.CloudMetadata{
				EntityID:  entity.ID,
				SubKind:   sk,
				SizeGroup: models.SizeGroupOf(entity),
				Record:    rec.Metadata(),
				// the remote holds this version; a newer local edit re-enqueues
				SyncedAt: entity.UpdatedAt,
			},
		})
	}
	return out
}
