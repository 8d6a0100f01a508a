package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// ─────────────────────────────────────────────
// Mock AuthService
// ─────────────────────────────────────────────

type mockAuthService struct {
	registerUserFn func(ctx context.Context, user models.User) (models.User, error)
	loginFn        func(ctx context.Context, user models.User) (models.User, error)
	createTokenFn  func(ctx context.Context, user models.User) (models.Token, error)
	parseTokenFn   func(ctx context.Context, tokenString string) (models.Token, error)
}

func (m *mockAuthService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	return m.registerUserFn(ctx, user)
}

func (m *mockAuthService) Login(ctx context.Context, user models.User) (models.User, error) {
	return m.loginFn(ctx, user)
}

func (m *mockAuthService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	if m.createTokenFn == nil {
		return models.Token{SignedString: "signed-token"}, nil
	}
	return m.createTokenFn(ctx, user)
}

func (m *mockAuthService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	if m.parseTokenFn == nil {
		if tokenString != "good-token" {
			return models.Token{}, service.ErrTokenIsExpiredOrInvalid
		}
		return models.Token{UserID: 42}, nil
	}
	return m.parseTokenFn(ctx, tokenString)
}

// ─────────────────────────────────────────────
// Mock RecordService
// ─────────────────────────────────────────────

type mockRecordService struct {
	createFn   func(ctx context.Context, userID int64, container string) error
	deleteFn   func(ctx context.Context, userID int64, container string) error
	modifyFn   func(ctx context.Context, userID int64, container string, req models.ModifyRequest) (models.ModifyResponse, error)
	queryFn    func(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error)
	metadataFn func(ctx context.Context, userID int64, container string, req models.MetadataRequest) (models.MetadataResponse, error)
}

func (m *mockRecordService) CreateContainer(ctx context.Context, userID int64, container string) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, userID, container)
}

func (m *mockRecordService) DeleteContainer(ctx context.Context, userID int64, container string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, userID, container)
}

func (m *mockRecordService) Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) (models.ModifyResponse, error) {
	return m.modifyFn(ctx, userID, container, req)
}

func (m *mockRecordService) Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error) {
	return m.queryFn(ctx, userID, container, q)
}

func (m *mockRecordService) FetchMetadata(ctx context.Context, userID int64, container string, req models.MetadataRequest) (models.MetadataResponse, error) {
	return m.metadataFn(ctx, userID, container, req)
}

// ─────────────────────────────────────────────
// Mock AppInfoService
// ─────────────────────────────────────────────

type mockAppInfoService struct {
	version string
}

func (m *mockAppInfoService) GetAppVersion(context.Context) string { return m.version }

func (m *mockAppInfoService) GetBuildInfo(context.Context) models.AppBuildInfo {
	return models.NewAppBuildInfo(m.version, "", "")
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func newTestHandler(auth *mockAuthService, records *mockRecordService) *Handler {
	if auth == nil {
		auth = &mockAuthService{}
	}
	if records == nil {
		records = &mockRecordService{}
	}
	svcs := &service.Services{
		AuthService:    auth,
		RecordService:  records,
		AppInfoService: &mockAppInfoService{version: "v1.2.3"},
	}
	return NewHandler(svcs, tracing.Nop(), 0, logger.Nop())
}

// withNopLogger puts a logger into the request context the way withTraceID does.
func withNopLogger(r *http.Request) *http.Request {
	return r.WithContext(logger.Nop().WithContext(r.Context()))
}
