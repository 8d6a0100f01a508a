package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	App struct {
		PasswordHashKey string   `json:"password_hash_key" yaml:"password_hash_key"`
		TokenSignKey    string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer     string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration   Duration `json:"token_duration" yaml:"token_duration"`
		WalletID        string   `json:"wallet_id" yaml:"wallet_id"`
		Passphrase      string   `json:"passphrase" yaml:"passphrase"`
		LogFile         string   `json:"log_file" yaml:"log_file"`
	} `json:"app" yaml:"app"`

	Storage struct {
		DSN       string `json:"dsn" yaml:"dsn"`
		LocalPath string `json:"local_path" yaml:"local_path"`
	} `json:"storage" yaml:"storage"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		GRPCAddress    string   `json:"grpc_address" yaml:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"server" yaml:"server"`

	Adapter struct {
		HTTPAddress     string   `json:"http_address" yaml:"http_address"`
		GRPCAddress     string   `json:"grpc_address" yaml:"grpc_address"`
		RequestTimeout  Duration `json:"request_timeout" yaml:"request_timeout"`
		Login           string   `json:"login" yaml:"login"`
		Password        string   `json:"password" yaml:"password"`
		CredentialsFile string   `json:"credentials_file" yaml:"credentials_file"`
	} `json:"adapter" yaml:"adapter"`

	Workers struct {
		ConnectivityInterval    Duration `json:"connectivity_interval" yaml:"connectivity_interval"`
		QueuePollInterval       Duration `json:"queue_poll_interval" yaml:"queue_poll_interval"`
		CredentialCheckInterval Duration `json:"credential_check_interval" yaml:"credential_check_interval"`
	} `json:"workers" yaml:"workers"`

	Sync struct {
		Domains          []string `json:"domains" yaml:"domains"`
		ToggleDelay      Duration `json:"toggle_delay" yaml:"toggle_delay"`
		UploadDelay      bool     `json:"upload_delay" yaml:"upload_delay"`
		UploadDelayMin   Duration `json:"upload_delay_min" yaml:"upload_delay_min"`
		UploadDelayMax   Duration `json:"upload_delay_max" yaml:"upload_delay_max"`
		DownloadPageSize int      `json:"download_page_size" yaml:"download_page_size"`
		SharedRateLimit  float64  `json:"shared_rate_limit" yaml:"shared_rate_limit"`
		SharedRateBurst  int      `json:"shared_rate_burst" yaml:"shared_rate_burst"`
	} `json:"sync" yaml:"sync"`

	Tracing struct {
		Enabled    bool    `json:"enabled" yaml:"enabled"`
		Exporter   string  `json:"exporter" yaml:"exporter"`
		Endpoint   string  `json:"endpoint" yaml:"endpoint"`
		SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	} `json:"tracing" yaml:"tracing"`
}

// parseFile reads a JSON or YAML config file. The format is chosen by the
// extension: ".yaml" and ".yml" are YAML, anything else is JSON.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	return fc.toStructured(), nil
}

func (fc *fileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			PasswordHashKey: fc.App.PasswordHashKey,
			TokenSignKey:    fc.App.TokenSignKey,
			TokenIssuer:     fc.App.TokenIssuer,
			TokenDuration:   time.Duration(fc.App.TokenDuration),
			WalletID:        fc.App.WalletID,
			Passphrase:      fc.App.Passphrase,
			LogFile:         fc.App.LogFile,
		},
		Storage: Storage{
			DB:    DB{DSN: fc.Storage.DSN},
			Local: Local{Path: fc.Storage.LocalPath},
		},
		Server: Server{
			HTTPAddress:    fc.Server.HTTPAddress,
			GRPCAddress:    fc.Server.GRPCAddress,
			RequestTimeout: time.Duration(fc.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:     fc.Adapter.HTTPAddress,
			GRPCAddress:     fc.Adapter.GRPCAddress,
			RequestTimeout:  time.Duration(fc.Adapter.RequestTimeout),
			Login:           fc.Adapter.Login,
			Password:        fc.Adapter.Password,
			CredentialsFile: fc.Adapter.CredentialsFile,
		},
		Workers: Workers{
			ConnectivityInterval:    time.Duration(fc.Workers.ConnectivityInterval),
			QueuePollInterval:       time.Duration(fc.Workers.QueuePollInterval),
			CredentialCheckInterval: time.Duration(fc.Workers.CredentialCheckInterval),
		},
		Sync: Sync{
			Domains:          fc.Sync.Domains,
			ToggleDelay:      time.Duration(fc.Sync.ToggleDelay),
			UploadDelay:      fc.Sync.UploadDelay,
			UploadDelayMin:   time.Duration(fc.Sync.UploadDelayMin),
			UploadDelayMax:   time.Duration(fc.Sync.UploadDelayMax),
			DownloadPageSize: fc.Sync.DownloadPageSize,
			SharedRateLimit:  fc.Sync.SharedRateLimit,
			SharedRateBurst:  fc.Sync.SharedRateBurst,
		},
		Tracing: Tracing{
			Enabled:    fc.Tracing.Enabled,
			Exporter:   fc.Tracing.Exporter,
			Endpoint:   fc.Tracing.Endpoint,
			SampleRate: fc.Tracing.SampleRate,
		},
	}
}

// Duration is a time.Duration that decodes from strings like "1h" or "30s"
// (and from plain nanosecond numbers) in both JSON and YAML.
type Duration time.Duration

func (d *Duration) set(v any) error {
	switch value := v.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(value))
	case int:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}
