package service

import (
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

type Services struct {
	AuthService    AuthService
	RecordService  RecordService
	AppInfoService AppInfoService
}

// NewServices wires the server services over storages. RecordService is
// wrapped with request validation.
func NewServices(storages *store.Storages, cfg *config.ServerConfig, buildInfo models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, buildInfo, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	records := NewRecordValidationService().Wrap(NewRecordService(storages.RecordRepository, logger))

	return &Services{
		AuthService:    NewAuthService(storages.UserRepository, cfg.App, logger),
		RecordService:  records,
		AppInfoService: appInfo,
	}, nil
}
