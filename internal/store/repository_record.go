// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// recordRepository is the PostgreSQL-backed implementation of
// [RecordRepository].
//
// A modify request is not atomic: each save and each delete runs in its own
// transaction, and the caller gets one [models.ItemResult] per record. A
// save locks the stored row and compares change tags before writing, so
// concurrent writers of one record see exactly one winner.
type recordRepository struct {
	logger *logger.Logger
	db     *DB
	newTag func() string
}

// NewRecordRepository constructs a [RecordRepository] over db.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	logger.Debug().Msg("creating record repository")
	return &recordRepository{
		db:     db,
		logger: logger,
		newTag: utils.NewUUIDGenerator().Generate,
	}
}

func (r *recordRepository) CreateContainer(ctx context.Context, userID int64, container string) error {
	if err := execBuilt(ctx, r.db, buildCreateContainerQuery(userID, container)); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*recordRepository.CreateContainer").Msg("error creating container")
		return err
	}
	return nil
}

func (r *recordRepository) DeleteContainer(ctx context.Context, userID int64, container string) error {
	query, args, err := buildDeleteContainerQuery(userID, container).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*recordRepository.DeleteContainer").Msg("error deleting container")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContainerNotFound
	}
	return nil
}

// Modify applies the saves and then the deletes of req. A retryable
// database failure marks the failing item and every item after it
// account_unavailable; any other database failure aborts the request.
func (r *recordRepository) Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) ([]models.ItemResult, error) {
	log := logger.FromContext(ctx)

	if err := r.requireContainer(ctx, userID, container); err != nil {
		return nil, err
	}

	results := make([]models.ItemResult, 0, len(req.Saves)+len(req.Deletes))
	unavailable := false

	for _, s := range req.Saves {
		if unavailable {
			results = append(results, models.ItemResult{RecordID: s.RecordID, Status: models.ItemAccountUnavailable})
			continue
		}

		res, err := r.save(ctx, userID, container, s)
		if err != nil {
			if !r.db.Retryable(err) {
				log.Err(err).Str("func", "*recordRepository.Modify").Str("record_id", s.RecordID).Msg("error saving record")
				return nil, err
			}
			log.Warn().Err(err).Str("func", "*recordRepository.Modify").Msg("retryable error, skipping rest of the batch")
			unavailable = true
			res = models.ItemResult{RecordID: s.RecordID, Status: models.ItemAccountUnavailable}
		}
		results = append(results, res)
	}

	for _, recordID := range req.Deletes {
		if unavailable {
			results = append(results, models.ItemResult{RecordID: recordID, Status: models.ItemAccountUnavailable})
			continue
		}

		res, err := r.delete(ctx, userID, container, recordID)
		if err != nil {
			if !r.db.Retryable(err) {
				log.Err(err).Str("func", "*recordRepository.Modify").Str("record_id", recordID).Msg("error deleting record")
				return nil, err
			}
			unavailable = true
			res = models.ItemResult{RecordID: recordID, Status: models.ItemAccountUnavailable}
		}
		results = append(results, res)
	}

	return results, nil
}

func (r *recordRepository) save(ctx context.Context, userID int64, container string, s models.RecordSave) (models.ItemResult, error) {
	result := models.ItemResult{RecordID: s.RecordID}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := buildLockRecordQuery(userID, container, s.RecordID).ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		var stored string
		err = tx.QueryRowContext(ctx, query, args...).Scan(&stored)
		exists := true
		switch {
		case errors.Is(err, sql.ErrNoRows):
			exists = false
		case err != nil:
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		// the writer must hold the current tag; a new record takes none
		if (exists && stored != s.ChangeTag) || (!exists && s.ChangeTag != "") {
			result.Status = models.ItemConflict
			result.Message = "change tag mismatch"
			return nil
		}

		tag := r.newTag()
		var b sq.Sqlizer = buildInsertRecordQuery(userID, container, s, tag)
		if exists {
			b = buildUpdateRecordQuery(userID, container, s, tag)
		}
		query, args, err = b.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		meta := models.RecordMetadata{RecordID: s.RecordID, ChangeTag: tag}
		if err = tx.QueryRowContext(ctx, query, args...).Scan(&meta.CreatedAt, &meta.ModifiedAt); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		result.Status = models.ItemOK
		result.Metadata = &meta
		return nil
	})
	if err != nil {
		return models.ItemResult{}, err
	}
	return result, nil
}

func (r *recordRepository) delete(ctx context.Context, userID int64, container, recordID string) (models.ItemResult, error) {
	query, args, err := buildDeleteRecordQuery(userID, container, recordID).ToSql()
	if err != nil {
		return models.ItemResult{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.ItemResult{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ItemResult{RecordID: recordID, Status: models.ItemNotFound}, nil
	}
	return models.ItemResult{RecordID: recordID, Status: models.ItemOK}, nil
}

// Query returns up to q.Limit records newest first and a cursor when more
// remain.
func (r *recordRepository) Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error) {
	log := logger.FromContext(ctx)

	after, err := decodeCursor(q.Cursor)
	if err != nil {
		return models.RecordPage{}, err
	}
	if err = r.requireContainer(ctx, userID, container); err != nil {
		return models.RecordPage{}, err
	}

	query, args, err := buildQueryRecordsQuery(userID, container, q, after).ToSql()
	if err != nil {
		return models.RecordPage{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*recordRepository.Query").Msg("error querying records")
		return models.RecordPage{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.Record, 0, q.Limit+1)
	for rows.Next() {
		var rec models.Record
		var subKind string
		if err = rows.Scan(&rec.RecordID, &subKind, &rec.Ciphertext, &rec.ChangeTag, &rec.CreatedAt, &rec.ModifiedAt); err != nil {
			return models.RecordPage{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		rec.SubKind = models.SubKind(subKind)
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return models.RecordPage{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	page := models.RecordPage{Records: records}
	if len(records) > q.Limit {
		page.Records = records[:q.Limit]
		last := page.Records[len(page.Records)-1]
		page.Cursor = recordCursor{createdAt: last.CreatedAt, recordID: last.RecordID}.encode()
	}
	return page, nil
}

func (r *recordRepository) FetchMetadata(ctx context.Context, userID int64, container string, recordIDs []string) ([]models.RecordMetadata, error) {
	if err := r.requireContainer(ctx, userID, container); err != nil {
		return nil, err
	}
	if len(recordIDs) == 0 {
		return []models.RecordMetadata{}, nil
	}

	query, args, err := buildFetchMetadataQuery(userID, container, recordIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*recordRepository.FetchMetadata").Msg("error querying metadata")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	metadata := make([]models.RecordMetadata, 0, len(recordIDs))
	for rows.Next() {
		var m models.RecordMetadata
		if err = rows.Scan(&m.RecordID, &m.ChangeTag, &m.CreatedAt, &m.ModifiedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		metadata = append(metadata, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return metadata, nil
}

func (r *recordRepository) requireContainer(ctx context.Context, userID int64, container string) error {
	query, args, err := buildContainerExistsQuery(userID, container).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrContainerNotFound
	case err != nil:
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
