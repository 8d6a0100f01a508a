// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// errorClassifier decides whether a storage failure may succeed on retry.
type errorClassifier interface {
	Classify(err error) store.ErrorClassification
}

type recordService struct {
	records    store.RecordRepository
	classifier errorClassifier

	logger *logger.Logger
}

// NewRecordService returns a RecordService backed by records. Retryable
// PostgreSQL failures are reported as ErrStoreUnavailable.
func NewRecordService(records store.RecordRepository, logger *logger.Logger) RecordService {
	return &recordService{
		records:    records,
		classifier: store.NewPostgresErrorClassifier(),
		logger:     logger,
	}
}

func (s *recordService) CreateContainer(ctx context.Context, userID int64, container string) error {
	if err := s.records.CreateContainer(ctx, userID, container); err != nil {
		return s.wrap(ctx, "create container", err)
	}
	return nil
}

func (s *recordService) DeleteContainer(ctx context.Context, userID int64, container string) error {
	if err := s.records.DeleteContainer(ctx, userID, container); err != nil {
		return s.wrap(ctx, "delete container", err)
	}
	return nil
}

func (s *recordService) Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) (models.ModifyResponse, error) {
	results, err := s.records.Modify(ctx, userID, container, req)
	if err != nil {
		return models.ModifyResponse{}, s.wrap(ctx, "modify", err)
	}
	return models.ModifyResponse{Results: results}, nil
}

func (s *recordService) Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error) {
	page, err := s.records.Query(ctx, userID, container, q)
	if err != nil {
		return models.RecordPage{}, s.wrap(ctx, "query", err)
	}
	if page.Records == nil {
		page.Records = []models.Record{}
	}
	return page, nil
}

func (s *recordService) FetchMetadata(ctx context.Context, userID int64, container string, req models.MetadataRequest) (models.MetadataResponse, error) {
	metadata, err := s.records.FetchMetadata(ctx, userID, container, req.RecordIDs)
	if err != nil {
		return models.MetadataResponse{}, s.wrap(ctx, "fetch metadata", err)
	}
	if metadata == nil {
		metadata = []models.RecordMetadata{}
	}
	return models.MetadataResponse{Metadata: metadata}, nil
}

// wrap keeps domain sentinels visible to callers and folds retryable
// database errors into ErrStoreUnavailable.
func (s *recordService) wrap(ctx context.Context, op string, err error) error {
	log := logger.FromContext(ctx)

	switch {
	case errors.Is(err, store.ErrContainerNotFound), errors.Is(err, store.ErrInvalidCursor):
		return err
	case s.classifier.Classify(err) == store.Retryable:
		log.Warn().Err(err).Str("op", op).Msg("retryable storage failure")
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	log.Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%s: %w", op, err)
}
