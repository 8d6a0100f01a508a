// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks invariants shared by every configuration view.
func (cfg *StructuredConfig) validate() error {
	s := cfg.Sync
	if s.UploadDelayMax < s.UploadDelayMin {
		return fmt.Errorf("%w: upload delay max %s is below min %s", ErrInvalidSyncConfigs, s.UploadDelayMax, s.UploadDelayMin)
	}
	if s.DownloadPageSize < 0 || s.SharedRateLimit < 0 || s.SharedRateBurst < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidSyncConfigs)
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return fmt.Errorf("%w: sample rate must be within [0, 1]", ErrInvalidSyncConfigs)
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	path := cfg.Storage.Local.Path
	if path == "" || strings.Contains(path, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 || cfg.Adapter.CredentialsFile == "" {
		return ErrInvalidAdapterConfigs
	}

	w := cfg.Workers
	if w.ConnectivityInterval <= 0 || w.QueuePollInterval <= 0 || w.CredentialCheckInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.WalletID == "" || cfg.App.Passphrase == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Sync.ToggleDelay <= 0 || cfg.Sync.DownloadPageSize <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" || cfg.App.TokenDuration <= 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}
