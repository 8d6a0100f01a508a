package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID    = int64(7)
	testContainer = "c0ffee"
)

func newTestRecordRepo(t *testing.T) (*recordRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l := logger.Nop()
	repo := &recordRepository{
		db:     &DB{DB: db, logger: l, errorClassificator: NewPostgresErrorClassifier()},
		logger: l,
		newTag: func() string { return "tag-new" },
	}
	return repo, mock
}

func expectContainer(mock sqlmock.Sqlmock, exists bool) {
	rows := sqlmock.NewRows([]string{"?column?"})
	if exists {
		rows.AddRow(1)
	}
	mock.ExpectQuery("SELECT 1 FROM containers").
		WithArgs(testContainer, testUserID).
		WillReturnRows(rows)
}

func expectLock(mock sqlmock.Sqlmock, recordID string, storedTag string) {
	rows := sqlmock.NewRows([]string{"change_tag"})
	if storedTag != "" {
		rows.AddRow(storedTag)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT change_tag FROM records")).
		WithArgs(testContainer, recordID, testUserID).
		WillReturnRows(rows)
}

// ── containers ───────────────────────────────────────────────────────────────

func TestRecordRepository_CreateContainerIsIdempotent(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO containers (user_id,name) VALUES ($1,$2) ON CONFLICT")).
		WithArgs(testUserID, testContainer).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.CreateContainer(context.Background(), testUserID, testContainer))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_DeleteMissingContainer(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec("DELETE FROM containers").
		WithArgs(testContainer, testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteContainer(context.Background(), testUserID, testContainer)
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

// ── modify ───────────────────────────────────────────────────────────────────

func TestRecordRepository_ModifyRequiresContainer(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	expectContainer(mock, false)

	_, err := repo.Modify(context.Background(), testUserID, testContainer, models.ModifyRequest{Deletes: []string{"r1"}})
	assert.ErrorIs(t, err, ErrContainerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ModifyPerItemStatuses(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	modified := created.Add(time.Hour)

	expectContainer(mock, true)

	// r1: новая запись
	mock.ExpectBegin()
	expectLock(mock, "r1", "")
	mock.ExpectQuery("INSERT INTO records").
		WithArgs(testUserID, testContainer, "r1", "payment", []byte("ct1"), "tag-new", created).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "modified_at"}).AddRow(created, modified))
	mock.ExpectCommit()

	// r2: устаревший тег
	mock.ExpectBegin()
	expectLock(mock, "r2", "tag-current")
	mock.ExpectCommit()

	// r3: insert over an existing record is a conflict too
	mock.ExpectBegin()
	expectLock(mock, "r3", "tag-current")
	mock.ExpectCommit()

	// r4: обновление с актуальным тегом
	mock.ExpectBegin()
	expectLock(mock, "r4", "tag-4")
	mock.ExpectQuery("UPDATE records SET").
		WithArgs("contact", []byte("ct4"), "tag-new", testContainer, "r4", testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "modified_at"}).AddRow(created, modified))
	mock.ExpectCommit()

	mock.ExpectExec("DELETE FROM records").
		WithArgs(testContainer, "r5", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM records").
		WithArgs(testContainer, "r6", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	results, err := repo.Modify(context.Background(), testUserID, testContainer, models.ModifyRequest{
		Saves: []models.RecordSave{
			{RecordID: "r1", SubKind: models.SubKindPayment, Ciphertext: []byte("ct1"), CreatedAt: created},
			{RecordID: "r2", SubKind: models.SubKindPayment, Ciphertext: []byte("ct2"), CreatedAt: created, ChangeTag: "tag-stale"},
			{RecordID: "r3", SubKind: models.SubKindPayment, Ciphertext: []byte("ct3"), CreatedAt: created},
			{RecordID: "r4", SubKind: models.SubKindContact, Ciphertext: []byte("ct4"), CreatedAt: created, ChangeTag: "tag-4"},
		},
		Deletes: []string{"r5", "r6"},
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	statuses := make([]models.ItemStatus, len(results))
	for i, r := range results {
		statuses[i] = r.Status
	}
	assert.Equal(t, []models.ItemStatus{
		models.ItemOK, models.ItemConflict, models.ItemConflict, models.ItemOK, models.ItemOK, models.ItemNotFound,
	}, statuses)

	require.NotNil(t, results[0].Metadata)
	assert.Equal(t, "tag-new", results[0].Metadata.ChangeTag)
	assert.True(t, results[0].Metadata.ModifiedAt.Equal(modified))
	assert.Nil(t, results[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ModifyRetryableFailureMarksRest(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	expectContainer(mock, true)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT change_tag FROM records")).
		WillReturnError(pgError(pgerrcode.SerializationFailure))
	mock.ExpectRollback()

	results, err := repo.Modify(context.Background(), testUserID, testContainer, models.ModifyRequest{
		Saves:   []models.RecordSave{{RecordID: "r1"}, {RecordID: "r2"}},
		Deletes: []string{"r3"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.ItemAccountUnavailable, r.Status, r.RecordID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ModifyFatalFailureAborts(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	expectContainer(mock, true)

	mock.ExpectExec("DELETE FROM records").
		WillReturnError(pgError(pgerrcode.UndefinedTable))

	_, err := repo.Modify(context.Background(), testUserID, testContainer, models.ModifyRequest{Deletes: []string{"r1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutingStatement))
}

// ── query ────────────────────────────────────────────────────────────────────

func recordRows(records ...models.Record) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"record_id", "sub_kind", "ciphertext", "change_tag", "created_at", "modified_at"})
	for _, r := range records {
		rows.AddRow(r.RecordID, string(r.SubKind), r.Ciphertext, r.ChangeTag, r.CreatedAt, r.ModifiedAt)
	}
	return rows
}

func TestRecordRepository_QueryPagesWithCursor(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := func(id string, age time.Duration) models.Record {
		return models.Record{RecordID: id, SubKind: models.SubKindPayment, Ciphertext: []byte(id), ChangeTag: "t", CreatedAt: base.Add(-age), ModifiedAt: base}
	}
	before := base.Add(time.Minute)

	expectContainer(mock, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM records WHERE container = $1 AND sub_kind = $2 AND user_id = $3 AND created_at < $4 ORDER BY created_at DESC, record_id DESC LIMIT 3")).
		WithArgs(testContainer, "payment", testUserID, before).
		WillReturnRows(recordRows(rec("a", 0), rec("b", time.Hour), rec("c", 2*time.Hour)))

	page, err := repo.Query(context.Background(), testUserID, testContainer, models.RecordQuery{
		SubKind: models.SubKindPayment, CreatedBefore: &before, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "b", page.Records[1].RecordID)
	require.NotEmpty(t, page.Cursor)

	expectContainer(mock, true)
	mock.ExpectQuery(regexp.QuoteMeta("AND (created_at, record_id) < ($4, $5)")).
		WithArgs(testContainer, "payment", testUserID, base.Add(-time.Hour), "b").
		WillReturnRows(recordRows(rec("c", 2*time.Hour)))

	page, err = repo.Query(context.Background(), testUserID, testContainer, models.RecordQuery{
		SubKind: models.SubKindPayment, Limit: 2, Cursor: page.Cursor,
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Empty(t, page.Cursor, "last page has no cursor")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_QueryRejectsBadCursor(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	for _, cursor := range []string{"%%%", "bm9jb2xvbg", "eDpy"} {
		_, err := repo.Query(context.Background(), testUserID, testContainer, models.RecordQuery{Limit: 1, Cursor: cursor})
		assert.ErrorIs(t, err, ErrInvalidCursor, cursor)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCursor_RoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	got, err := decodeCursor(recordCursor{createdAt: at, recordID: "abc:def"}.encode())
	require.NoError(t, err)
	assert.True(t, got.createdAt.Equal(at))
	assert.Equal(t, "abc:def", got.recordID)

	none, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, none)
}

// ── metadata ─────────────────────────────────────────────────────────────────

func TestRecordRepository_FetchMetadata(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	expectContainer(mock, true)
	mock.ExpectQuery(regexp.QuoteMeta("record_id IN ($2,$3)")).
		WithArgs(testContainer, "r1", "r2", testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"record_id", "change_tag", "created_at", "modified_at"}).
			AddRow("r2", "tag-2", at, at))

	meta, err := repo.FetchMetadata(context.Background(), testUserID, testContainer, []string{"r1", "r2"})
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, "tag-2", meta[0].ChangeTag)

	expectContainer(mock, true)
	meta, err = repo.FetchMetadata(context.Background(), testUserID, testContainer, nil)
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}
