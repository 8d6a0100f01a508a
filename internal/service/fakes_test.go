package service

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// ─────────────────────────────────────────────
// Mock: store.UserRepository
// ─────────────────────────────────────────────

type mockUserRepository struct {
	createFn func(ctx context.Context, user models.User) (models.User, error)
	findFn   func(ctx context.Context, login string) (models.User, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, login)
	}
	return models.User{}, nil
}

// ─────────────────────────────────────────────
// Mock: store.RecordRepository
// ─────────────────────────────────────────────

type mockRecordRepository struct {
	createFn   func(ctx context.Context, userID int64, container string) error
	deleteFn   func(ctx context.Context, userID int64, container string) error
	modifyFn   func(ctx context.Context, userID int64, container string, req models.ModifyRequest) ([]models.ItemResult, error)
	queryFn    func(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error)
	metadataFn func(ctx context.Context, userID int64, container string, ids []string) ([]models.RecordMetadata, error)
}

func (m *mockRecordRepository) CreateContainer(ctx context.Context, userID int64, container string) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, container)
	}
	return nil
}

func (m *mockRecordRepository) DeleteContainer(ctx context.Context, userID int64, container string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, container)
	}
	return nil
}

func (m *mockRecordRepository) Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) ([]models.ItemResult, error) {
	if m.modifyFn != nil {
		return m.modifyFn(ctx, userID, container, req)
	}
	out := make([]models.ItemResult, 0, len(req.Saves)+len(req.Deletes))
	for _, s := range req.Saves {
		out = append(out, models.ItemResult{RecordID: s.RecordID, Status: models.ItemOK})
	}
	for _, id := range req.Deletes {
		out = append(out, models.ItemResult{RecordID: id, Status: models.ItemOK})
	}
	return out, nil
}

func (m *mockRecordRepository) Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, userID, container, q)
	}
	return models.RecordPage{}, nil
}

func (m *mockRecordRepository) FetchMetadata(ctx context.Context, userID int64, container string, ids []string) ([]models.RecordMetadata, error) {
	if m.metadataFn != nil {
		return m.metadataFn(ctx, userID, container, ids)
	}
	return nil, nil
}
