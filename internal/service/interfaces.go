// Package service holds the record store server's business logic: account
// registration and token issuance, and container-scoped record operations.
package service

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// AuthService manages accounts and bearer tokens.
type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// RecordService runs record operations inside a container owned by userID.
type RecordService interface {
	CreateContainer(ctx context.Context, userID int64, container string) error
	DeleteContainer(ctx context.Context, userID int64, container string) error

	Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) (models.ModifyResponse, error)
	Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error)
	FetchMetadata(ctx context.Context, userID int64, container string, req models.MetadataRequest) (models.MetadataResponse, error)
}

// AppInfoService reports build information of the running server.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}

// RecordServiceWrapper defines middleware composition for RecordService.
// Implementations wrap an existing RecordService to add behavior such as
// validation.
type RecordServiceWrapper interface {
	Wrap(RecordService) RecordService
}
