package config

import "time"

// defaults is the lowest-priority configuration layer.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   "wallet-cloud-sync",
			TokenDuration: 24 * time.Hour,
			Version:       "dev",
		},
		Storage: Storage{
			Local: Local{Path: "wallet-sync.db"},
		},
		Server: Server{
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			RequestTimeout:  30 * time.Second,
			CredentialsFile: "credentials.jwt",
		},
		Workers: Workers{
			ConnectivityInterval:    15 * time.Second,
			QueuePollInterval:       5 * time.Second,
			CredentialCheckInterval: time.Minute,
		},
		Sync: Sync{
			ToggleDelay:      30 * time.Second,
			UploadDelayMin:   10 * time.Second,
			UploadDelayMax:   900 * time.Second,
			DownloadPageSize: 8,
			SharedRateBurst:  1,
		},
		Tracing: Tracing{
			Exporter:   "none",
			SampleRate: 1.0,
		},
	}
}
