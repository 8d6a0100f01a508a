package config

import (
	"fmt"
)

// ClientConfig is the sync client's view of [StructuredConfig].
type ClientConfig struct {
	// App contains the wallet identity and secrets.
	App App
	// Adapter contains record store addresses, timeouts and credentials.
	Adapter Adapter
	// Storage contains the local database location.
	Storage Storage
	// Workers contains monitor intervals.
	Workers Workers
	// Sync contains engine tunables.
	Sync Sync
	// Tracing contains span export settings.
	Tracing Tracing
}

// GetClientConfig builds and validates the client configuration view.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return clientView(cfg)
}

func clientView(cfg *StructuredConfig) (*ClientConfig, error) {
	clientCfg := &ClientConfig{
		App: App{
			PasswordHashKey: cfg.App.PasswordHashKey,
			WalletID:        cfg.App.WalletID,
			Passphrase:      cfg.App.Passphrase,
			LogFile:         cfg.App.LogFile,
			Version:         cfg.App.Version,
		},
		Adapter: cfg.Adapter,
		Storage: Storage{Local: cfg.Storage.Local},
		Workers: cfg.Workers,
		Sync:    cfg.Sync,
		Tracing: cfg.Tracing,
	}

	return clientCfg, clientCfg.validate()
}
