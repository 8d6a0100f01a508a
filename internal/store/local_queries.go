package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// SQLite uses ? placeholders, the squirrel default.
var lite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const (
	flagEnabled          = "enabled"
	flagContainerCreated = "container_created"
	flagDownloadedPrefix = "downloaded:"
)

func downloadedFlag(sk models.SubKind) string {
	return flagDownloadedPrefix + string(sk)
}

// Local timestamps are stored as unix milliseconds so they compare as
// integers.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Download bookmarks keep full resolution; a truncated bookmark would skip
// records created within the same millisecond.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

var metadataColumns = []string{
	"sub_kind", "entity_id", "record_id", "change_tag",
	"record_created_at", "modified_at", "unpadded_size", "synced_at", "size_group",
}

func buildUpsertEntityQuery(sk models.SubKind, id string, createdAt, updatedAt time.Time, payload []byte, onlyNewer bool) sq.Sqlizer {
	suffix := `ON CONFLICT (sub_kind, id) DO UPDATE SET
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		payload    = excluded.payload`
	if onlyNewer {
		suffix += ` WHERE excluded.updated_at >= entities.updated_at`
	}

	return lite.Insert("entities").
		Columns("sub_kind", "id", "created_at", "updated_at", "payload").
		Values(sk, id, toMillis(createdAt), toMillis(updatedAt), payload).
		Suffix(suffix)
}

func buildEnqueueQuery(sk models.SubKind, entityID string, now time.Time) sq.Sqlizer {
	return lite.Insert("sync_queue").
		Columns("sub_kind", "entity_id", "enqueued_at").
		Values(sk, entityID, toMillis(now))
}

func buildSelectQueueRowsQuery(sk models.SubKind, limit int) sq.Sqlizer {
	return lite.Select("row_id", "entity_id").
		From("sync_queue").
		Where(sq.Eq{"sub_kind": sk}).
		OrderBy("row_id").
		Limit(uint64(limit))
}

func buildSelectEntitiesQuery(sk models.SubKind, ids []string) sq.Sqlizer {
	return lite.Select("id", "payload").
		From("entities").
		Where(sq.Eq{"sub_kind": sk, "id": ids})
}

func buildSelectMetadataQuery(sk models.SubKind, entityIDs []string) sq.Sqlizer {
	return lite.Select(metadataColumns...).
		From("cloud_metadata").
		Where(sq.Eq{"sub_kind": sk, "entity_id": entityIDs})
}

func buildUpsertMetadataQuery(m models.CloudMetadata) sq.Sqlizer {
	return lite.Insert("cloud_metadata").
		Columns(metadataColumns...).
		Values(
			m.SubKind, m.EntityID, m.Record.RecordID, m.Record.ChangeTag,
			toMillis(m.Record.CreatedAt), toMillis(m.Record.ModifiedAt), m.UnpaddedSize, toMillis(m.SyncedAt), m.SizeGroup,
		).
		Suffix(`ON CONFLICT (sub_kind, entity_id) DO UPDATE SET
			record_id         = excluded.record_id,
			change_tag        = excluded.change_tag,
			record_created_at = excluded.record_created_at,
			modified_at       = excluded.modified_at,
			unpadded_size     = CASE WHEN excluded.unpadded_size > 0 THEN excluded.unpadded_size ELSE cloud_metadata.unpadded_size END,
			synced_at         = excluded.synced_at,
			size_group        = CASE WHEN excluded.size_group <> '' THEN excluded.size_group ELSE cloud_metadata.size_group END`)
}

// buildSizeStatsQuery aggregates unpadded sizes per size group. Rows cached
// before size groups were recorded fall back to their subkind.
func buildSizeStatsQuery(subKinds []models.SubKind) sq.Sqlizer {
	const group = "COALESCE(NULLIF(size_group, ''), sub_kind)"
	return lite.Select(group, "COUNT(*)", "AVG(unpadded_size)", "AVG(unpadded_size * unpadded_size)").
		From("cloud_metadata").
		Where(sq.Eq{"sub_kind": subKinds}).
		Where(sq.Gt{"unpadded_size": 0}).
		GroupBy(group)
}

// buildEnqueueUnsyncedQuery enqueues entities of sk without remote metadata
// or changed since the remote version, unless already queued.
func buildEnqueueUnsyncedQuery(sk models.SubKind, now time.Time) sq.Sqlizer {
	unsynced := lite.Select("e.sub_kind", "e.id").
		Column("?", toMillis(now)).
		From("entities e").
		LeftJoin("cloud_metadata m ON m.sub_kind = e.sub_kind AND m.entity_id = e.id").
		Where(sq.Eq{"e.sub_kind": sk}).
		Where(sq.Or{sq.Expr("m.entity_id IS NULL"), sq.Expr("e.updated_at > m.synced_at")}).
		Where(sq.Expr("NOT EXISTS (SELECT 1 FROM sync_queue q WHERE q.sub_kind = e.sub_kind AND q.entity_id = e.id)"))

	return lite.Insert("sync_queue").
		Columns("sub_kind", "entity_id", "enqueued_at").
		Select(unsynced)
}

func buildSetFlagQuery(domain, name string, value bool) sq.Sqlizer {
	v := 0
	if value {
		v = 1
	}
	return lite.Insert("sync_flags").
		Columns("domain", "name", "value").
		Values(domain, name, v).
		Suffix("ON CONFLICT (domain, name) DO UPDATE SET value = excluded.value")
}

func buildUpsertBookmarkQuery(sk models.SubKind, oldest time.Time) sq.Sqlizer {
	return lite.Insert("download_bookmarks").
		Columns("sub_kind", "oldest").
		Values(sk, toNanos(oldest)).
		Suffix("ON CONFLICT (sub_kind) DO UPDATE SET oldest = MIN(download_bookmarks.oldest, excluded.oldest)")
}

func buildClearCloudStateQueries(domain string, subKinds []models.SubKind) []sq.Sqlizer {
	names := []string{flagContainerCreated}
	for _, sk := range subKinds {
		names = append(names, downloadedFlag(sk))
	}

	return []sq.Sqlizer{
		lite.Delete("cloud_metadata").Where(sq.Eq{"sub_kind": subKinds}),
		lite.Delete("download_bookmarks").Where(sq.Eq{"sub_kind": subKinds}),
		lite.Delete("sync_flags").Where(sq.Eq{"domain": domain, "name": names}),
	}
}
