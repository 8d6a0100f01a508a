package config

import "fmt"

// ServerConfig is the record store server's view of [StructuredConfig].
type ServerConfig struct {
	App     App
	Storage Storage
	Server  Server
	Tracing Tracing
}

// GetServerConfig builds and validates the server configuration view.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return serverView(cfg)
}

func serverView(cfg *StructuredConfig) (*ServerConfig, error) {
	serverCfg := &ServerConfig{
		App: App{
			PasswordHashKey: cfg.App.PasswordHashKey,
			TokenSignKey:    cfg.App.TokenSignKey,
			TokenIssuer:     cfg.App.TokenIssuer,
			TokenDuration:   cfg.App.TokenDuration,
			Version:         cfg.App.Version,
		},
		Storage: Storage{DB: cfg.Storage.DB},
		Server:  cfg.Server,
		Tracing: cfg.Tracing,
	}

	return serverCfg, serverCfg.validate()
}
