package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// NewAppInfoService
// ─────────────────────────────────────────────

func TestNewAppInfoService_Success(t *testing.T) {
	svc, err := NewAppInfoService(config.App{Version: "1.0.0"}, models.AppBuildInfo{}, logger.Nop())

	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestNewAppInfoService_EmptyVersion_ReturnsError(t *testing.T) {
	svc, err := NewAppInfoService(config.App{}, models.NewAppBuildInfo("N/A", "N/A", "N/A"), logger.Nop())

	assert.Nil(t, svc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionIsNotSpecified))
}

func TestNewAppInfoService_FallsBackToBuildVersion(t *testing.T) {
	info := models.NewAppBuildInfo("v0.4.0", "2026-10-01", "abc123")

	svc, err := NewAppInfoService(config.App{}, info, logger.Nop())

	require.NoError(t, err)
	assert.Equal(t, "v0.4.0", svc.GetAppVersion(context.Background()))
	assert.Equal(t, "abc123", svc.GetBuildInfo(context.Background()).BuildCommit())
}

// ─────────────────────────────────────────────
// GetAppVersion
// ─────────────────────────────────────────────

func TestGetAppVersion_ConfigWinsOverBuildInfo(t *testing.T) {
	info := models.NewAppBuildInfo("v0.4.0", "", "")

	svc, err := NewAppInfoService(config.App{Version: "3.1.4"}, info, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "3.1.4", svc.GetAppVersion(context.Background()))
}

func TestGetAppVersion_CancelledContext_StillReturnsVersion(t *testing.T) {
	svc, err := NewAppInfoService(config.App{Version: "1.0.0"}, models.AppBuildInfo{}, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ctx не используется
	assert.Equal(t, "1.0.0", svc.GetAppVersion(ctx))
}
