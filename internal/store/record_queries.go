package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

var pg = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const recordColumns = "record_id, sub_kind, ciphertext, change_tag, created_at, modified_at"

func buildCreateContainerQuery(userID int64, container string) sq.Sqlizer {
	return pg.Insert("containers").
		Columns("user_id", "name").
		Values(userID, container).
		Suffix("ON CONFLICT (user_id, name) DO NOTHING")
}

func buildDeleteContainerQuery(userID int64, container string) sq.Sqlizer {
	return pg.Delete("containers").
		Where(sq.Eq{"user_id": userID, "name": container})
}

func buildContainerExistsQuery(userID int64, container string) sq.SelectBuilder {
	return pg.Select("1").
		From("containers").
		Where(sq.Eq{"user_id": userID, "name": container})
}

func buildLockRecordQuery(userID int64, container, recordID string) sq.SelectBuilder {
	return pg.Select("change_tag").
		From("records").
		Where(sq.Eq{"user_id": userID, "container": container, "record_id": recordID}).
		Suffix("FOR UPDATE")
}

func buildInsertRecordQuery(userID int64, container string, s models.RecordSave, tag string) sq.InsertBuilder {
	return pg.Insert("records").
		Columns("user_id", "container", "record_id", "sub_kind", "ciphertext", "change_tag", "created_at").
		Values(userID, container, s.RecordID, string(s.SubKind), s.Ciphertext, tag, s.CreatedAt).
		Suffix("RETURNING created_at, modified_at")
}

func buildUpdateRecordQuery(userID int64, container string, s models.RecordSave, tag string) sq.UpdateBuilder {
	return pg.Update("records").
		Set("sub_kind", string(s.SubKind)).
		Set("ciphertext", s.Ciphertext).
		Set("change_tag", tag).
		Set("modified_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID, "container": container, "record_id": s.RecordID}).
		Suffix("RETURNING created_at, modified_at")
}

func buildDeleteRecordQuery(userID int64, container, recordID string) sq.Sqlizer {
	return pg.Delete("records").
		Where(sq.Eq{"user_id": userID, "container": container, "record_id": recordID})
}

// buildQueryRecordsQuery selects one page newest first. It asks for one row
// more than the limit to tell whether another page follows.
func buildQueryRecordsQuery(userID int64, container string, q models.RecordQuery, after *recordCursor) sq.SelectBuilder {
	b := pg.Select(recordColumns).
		From("records").
		Where(sq.Eq{"user_id": userID, "container": container, "sub_kind": string(q.SubKind)})

	if q.CreatedBefore != nil {
		b = b.Where(sq.Lt{"created_at": *q.CreatedBefore})
	}
	if after != nil {
		b = b.Where("(created_at, record_id) < (?, ?)", after.createdAt, after.recordID)
	}

	return b.OrderBy("created_at DESC", "record_id DESC").
		Limit(uint64(q.Limit) + 1)
}

func buildFetchMetadataQuery(userID int64, container string, recordIDs []string) sq.SelectBuilder {
	return pg.Select("record_id", "change_tag", "created_at", "modified_at").
		From("records").
		Where(sq.Eq{"user_id": userID, "container": container, "record_id": recordIDs})
}

// recordCursor is the keyset position of the last record of a page.
type recordCursor struct {
	createdAt time.Time
	recordID  string
}

func (c recordCursor) encode() string {
	raw := strconv.FormatInt(c.createdAt.UnixNano(), 10) + ":" + c.recordID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*recordCursor, error) {
	if s == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	nanos, recordID, ok := strings.Cut(string(raw), ":")
	if !ok || recordID == "" {
		return nil, ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	return &recordCursor{createdAt: time.Unix(0, n).UTC(), recordID: recordID}, nil
}
