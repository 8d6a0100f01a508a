// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// LocalStore is the client's SQLite database: wallet entities, the upload
// queue, the cached remote metadata and the persisted sync flags.
//
// Local writes ([LocalStore.SaveEntity], [LocalStore.DeleteEntity]) enqueue
// the entity in the same transaction and notify [LocalStore.Changes].
// Downloaded entities are stored without enqueueing.
type LocalStore struct {
	db      *DB
	logger  *logger.Logger
	now     func() time.Time
	changes chan models.SubKind
}

// NewLocalStore wraps a migrated SQLite connection.
func NewLocalStore(db *DB, log *logger.Logger) *LocalStore {
	log.Debug().Msg("creating local store")
	return &LocalStore{
		db:      db,
		logger:  log,
		now:     time.Now,
		changes: make(chan models.SubKind, 64),
	}
}

// Changes delivers the subkind of every local write. Notifications are
// dropped while the channel is full.
func (s *LocalStore) Changes() <-chan models.SubKind {
	return s.changes
}

func (s *LocalStore) notify(sk models.SubKind) {
	select {
	case s.changes <- sk:
	default:
	}
}

// Close closes the database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// ── wallet writes ────────────────────────────────────────────────────────────

// SaveEntity inserts or updates e and enqueues it for upload.
func (s *LocalStore) SaveEntity(ctx context.Context, e models.Entity) error {
	log := logger.FromContext(ctx)

	if err := e.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	err = s.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := execBuilt(ctx, tx, buildUpsertEntityQuery(e.Kind, e.ID, e.CreatedAt, e.UpdatedAt, payload, false)); err != nil {
			return err
		}
		return execBuilt(ctx, tx, buildEnqueueQuery(e.Kind, e.ID, s.now()))
	})
	if err != nil {
		log.Err(err).Str("func", "*LocalStore.SaveEntity").Str("entity_id", e.ID).Msg("failed to save entity")
		return err
	}

	s.notify(e.Kind)
	return nil
}

// DeleteEntity removes an entity and enqueues the deletion.
func (s *LocalStore) DeleteEntity(ctx context.Context, sk models.SubKind, id string) error {
	log := logger.FromContext(ctx)

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := lite.Delete("entities").Where(sq.Eq{"sub_kind": sk, "id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrEntityNotFound
		}
		return execBuilt(ctx, tx, buildEnqueueQuery(sk, id, s.now()))
	})
	if err != nil {
		log.Err(err).Str("func", "*LocalStore.DeleteEntity").Str("entity_id", id).Msg("failed to delete entity")
		return err
	}

	s.notify(sk)
	return nil
}

// GetEntity returns one entity.
func (s *LocalStore) GetEntity(ctx context.Context, sk models.SubKind, id string) (models.Entity, error) {
	query, args, err := lite.Select("payload").From("entities").Where(sq.Eq{"sub_kind": sk, "id": id}).ToSql()
	if err != nil {
		return models.Entity{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entity{}, ErrEntityNotFound
		}
		return models.Entity{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return decodeEntity(payload)
}

// CountEntities returns the number of stored entities of sk.
func (s *LocalStore) CountEntities(ctx context.Context, sk models.SubKind) (int, error) {
	return s.count(ctx, lite.Select("COUNT(*)").From("entities").Where(sq.Eq{"sub_kind": sk}))
}

// ── upload queue ─────────────────────────────────────────────────────────────

// FetchBatch returns up to limit queue rows of the first subkind in
// subKinds that has any, with the referenced entities, their cached
// metadata and the size statistics of every size group in subKinds.
// Entities whose stored payload cannot be decoded are listed in Unreadable.
func (s *LocalStore) FetchBatch(ctx context.Context, subKinds []models.SubKind, limit int) (models.QueueBatch, error) {
	for _, sk := range subKinds {
		rows, err := s.queueRows(ctx, sk, limit)
		if err != nil {
			return models.QueueBatch{}, err
		}
		if len(rows) == 0 {
			continue
		}

		batch := models.QueueBatch{SubKind: sk, Rows: rows}
		ids := batch.EntityIDs()

		if batch.Entities, batch.Unreadable, err = s.entities(ctx, sk, ids); err != nil {
			return models.QueueBatch{}, err
		}
		if batch.Metadata, err = s.metadata(ctx, sk, ids); err != nil {
			return models.QueueBatch{}, err
		}
		if batch.Stats, err = s.SizeStats(ctx, subKinds); err != nil {
			return models.QueueBatch{}, err
		}
		return batch, nil
	}

	var batch models.QueueBatch
	if len(subKinds) > 0 {
		batch.SubKind = subKinds[0]
	}
	return batch, nil
}

func (s *LocalStore) queueRows(ctx context.Context, sk models.SubKind, limit int) ([]models.QueueRow, error) {
	query, args, err := buildSelectQueueRowsQuery(sk, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.QueueRow
	for rows.Next() {
		var row models.QueueRow
		if err := rows.Scan(&row.RowID, &row.EntityID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return out, nil
}

func (s *LocalStore) entities(ctx context.Context, sk models.SubKind, ids []string) (map[string]models.Entity, map[string]struct{}, error) {
	out := make(map[string]models.Entity, len(ids))
	unreadable := make(map[string]struct{})
	if len(ids) == 0 {
		return out, unreadable, nil
	}

	query, args, err := buildSelectEntitiesQuery(sk, ids).ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		e, err := decodeEntity(payload)
		if err != nil {
			// the entity still exists locally and must not become a remote delete
			logger.FromContext(ctx).Err(err).Str("func", "*LocalStore.entities").Str("entity_id", id).Msg("undecodable local entity")
			unreadable[id] = struct{}{}
			continue
		}
		out[id] = e
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return out, unreadable, nil
}

func (s *LocalStore) metadata(ctx context.Context, sk models.SubKind, ids []string) (map[string]models.CloudMetadata, error) {
	out := make(map[string]models.CloudMetadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := buildSelectMetadataQuery(sk, ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                            models.CloudMetadata
			created, modified, syncedAt int64
		)
		if err := rows.Scan(&m.SubKind, &m.EntityID, &m.Record.RecordID, &m.Record.ChangeTag,
			&created, &modified, &m.UnpaddedSize, &syncedAt, &m.SizeGroup); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		m.Record.CreatedAt, m.Record.ModifiedAt, m.SyncedAt = fromMillis(created), fromMillis(modified), fromMillis(syncedAt)
		out[m.EntityID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return out, nil
}

// SizeStats returns the mean and standard deviation of unpadded sizes
// uploaded for each size group of subKinds. Groups without samples are
// absent.
func (s *LocalStore) SizeStats(ctx context.Context, subKinds []models.SubKind) (models.SizeStats, error) {
	query, args, err := buildSizeStatsQuery(subKinds).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	stats := make(models.SizeStats)
	for rows.Next() {
		var (
			group        models.SizeGroup
			n            int
			mean, square float64
		)
		if err := rows.Scan(&group, &n, &mean, &square); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		stats[group] = models.SizeStat{Mean: mean, StdDev: math.Sqrt(max(0, square-mean*mean)), Samples: n}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return stats, nil
}

// UpdateRows commits an upload pass in one transaction.
func (s *LocalStore) UpdateRows(ctx context.Context, u models.QueueUpdate) error {
	log := logger.FromContext(ctx)

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		if len(u.DeleteFromQueue) > 0 {
			if err := execBuilt(ctx, tx, lite.Delete("sync_queue").Where(sq.Eq{"row_id": u.DeleteFromQueue})); err != nil {
				return err
			}
		}
		if len(u.DeleteFromMetadata) > 0 {
			if err := execBuilt(ctx, tx, lite.Delete("cloud_metadata").Where(sq.Eq{"entity_id": u.DeleteFromMetadata})); err != nil {
				return err
			}
		}
		for _, m := range u.UpsertMetadata {
			if err := execBuilt(ctx, tx, buildUpsertMetadataQuery(m)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "*LocalStore.UpdateRows").
			Int("dequeued", len(u.DeleteFromQueue)).
			Int("upserted", len(u.UpsertMetadata)).
			Msg("failed to commit upload pass")
	}
	return err
}

// QueueCount returns the number of queued rows of sk.
func (s *LocalStore) QueueCount(ctx context.Context, sk models.SubKind) (int, error) {
	return s.count(ctx, lite.Select("COUNT(*)").From("sync_queue").Where(sq.Eq{"sub_kind": sk}))
}

// ── downloads ────────────────────────────────────────────────────────────────

// OldestDownloaded returns the creation time of the oldest downloaded
// record of sk, or nil when nothing was downloaded yet.
func (s *LocalStore) OldestDownloaded(ctx context.Context, sk models.SubKind) (*time.Time, error) {
	query, args, err := lite.Select("oldest").From("download_bookmarks").Where(sq.Eq{"sub_kind": sk}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var ns int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&ns); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	t := fromNanos(ns)
	return &t, nil
}

// SaveDownloaded stores downloaded entities with their metadata and moves
// the download bookmarks. A local entity newer than the downloaded one is
// kept.
func (s *LocalStore) SaveDownloaded(ctx context.Context, entities []models.DownloadedEntity) error {
	log := logger.FromContext(ctx)

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range entities {
			payload, err := json.Marshal(d.Entity)
			if err != nil {
				return fmt.Errorf("marshal entity %s: %w", d.Entity.ID, err)
			}
			e := d.Entity
			if err := execBuilt(ctx, tx, buildUpsertEntityQuery(e.Kind, e.ID, e.CreatedAt, e.UpdatedAt, payload, true)); err != nil {
				return err
			}
			if err := execBuilt(ctx, tx, buildUpsertMetadataQuery(d.Metadata)); err != nil {
				return err
			}
			if err := execBuilt(ctx, tx, buildUpsertBookmarkQuery(d.Metadata.SubKind, d.Metadata.Record.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "*LocalStore.SaveDownloaded").Int("entities", len(entities)).Msg("failed to store downloaded entities")
	}
	return err
}

// EnqueueUnsynced enqueues entities of sk the remote lacks or holds an
// older version of.
func (s *LocalStore) EnqueueUnsynced(ctx context.Context, sk models.SubKind) (int, error) {
	query, args, err := buildEnqueueUnsyncedQuery(sk, s.now()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ── sync flags ───────────────────────────────────────────────────────────────

// LoadFlags reads the persisted flags of domain.
func (s *LocalStore) LoadFlags(ctx context.Context, domain string, subKinds []models.SubKind) (models.SyncFlags, error) {
	flags := models.SyncFlags{Downloaded: make(map[models.SubKind]bool, len(subKinds))}
	for _, sk := range subKinds {
		flags.Downloaded[sk] = false
	}

	query, args, err := lite.Select("name", "value").From("sync_flags").Where(sq.Eq{"domain": domain}).ToSql()
	if err != nil {
		return flags, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return flags, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			value bool
		)
		if err := rows.Scan(&name, &value); err != nil {
			return flags, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		switch {
		case name == flagEnabled:
			flags.Enabled = value
		case name == flagContainerCreated:
			flags.ContainerCreated = value
		case strings.HasPrefix(name, flagDownloadedPrefix):
			sk := models.SubKind(strings.TrimPrefix(name, flagDownloadedPrefix))
			if _, ok := flags.Downloaded[sk]; ok {
				flags.Downloaded[sk] = value
			}
		}
	}
	if err := rows.Err(); err != nil {
		return flags, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return flags, nil
}

// SetEnabled persists the committed enabled state of domain.
func (s *LocalStore) SetEnabled(ctx context.Context, domain string, enabled bool) error {
	return execBuilt(ctx, s.db, buildSetFlagQuery(domain, flagEnabled, enabled))
}

// SetContainerCreated persists whether the domain's container exists.
func (s *LocalStore) SetContainerCreated(ctx context.Context, domain string, created bool) error {
	return execBuilt(ctx, s.db, buildSetFlagQuery(domain, flagContainerCreated, created))
}

// MarkDownloaded records that the initial download of sk finished.
func (s *LocalStore) MarkDownloaded(ctx context.Context, domain string, sk models.SubKind) error {
	return execBuilt(ctx, s.db, buildSetFlagQuery(domain, downloadedFlag(sk), true))
}

// ClearCloudState forgets the remote container of domain: cached metadata,
// download bookmarks, downloaded flags and the container flag. Queued rows
// stay queued.
func (s *LocalStore) ClearCloudState(ctx context.Context, domain string, subKinds []models.SubKind) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range buildClearCloudStateQueries(domain, subKinds) {
			if err := execBuilt(ctx, tx, q); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execBuilt builds and executes q.
func execBuilt(ctx context.Context, db execer, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (s *LocalStore) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n, nil
}

func decodeEntity(payload []byte) (models.Entity, error) {
	var e models.Entity
	if err := json.Unmarshal(payload, &e); err != nil {
		return models.Entity{}, fmt.Errorf("decode entity: %w", err)
	}
	return e, nil
}
