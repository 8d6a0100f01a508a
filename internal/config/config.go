// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// sync client and the record store server. It is populated by merging
// command-line flags, environment variables, an optional JSON or YAML file
// and the built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env:       direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds secrets, token parameters and the wallet identity.
	App App `envPrefix:"APP_"`

	// Storage holds the server database and the client local database.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds listen addresses for the record store server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the client's view of the remote record store.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds intervals of the client monitors.
	Workers Workers `envPrefix:"WORKERS_"`

	// Sync holds engine tunables.
	Sync Sync `envPrefix:"SYNC_"`

	// Tracing holds OpenTelemetry exporter settings.
	Tracing Tracing `envPrefix:"TRACING_"`

	// FilePath is the optional path to a JSON or YAML configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	FilePath string `env:"CONFIG"`
}

// App holds application-level values.
type App struct {
	// PasswordHashKey is the HMAC key used to hash passwords before they are
	// sent to (client) or compared on (server) the record store.
	// Env: APP_PASSWORD_HASH_KEY
	PasswordHashKey string `env:"PASSWORD_HASH_KEY"`

	// TokenSignKey signs and verifies JWT tokens. Server only.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of issued tokens. Server only.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is how long an issued token stays valid. Server only.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// WalletID names the wallet whose data is backed up. Client only.
	// Env: APP_WALLET_ID
	WalletID string `env:"WALLET_ID"`

	// Passphrase is stretched with Argon2id into the wallet cloud secret.
	// Client only.
	// Env: APP_PASSPHRASE
	Passphrase string `env:"PASSPHRASE"`

	// LogFile is where the client writes its logs.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`

	// Version is exposed via GET /api/version/.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups persistence settings.
type Storage struct {
	// DB is the server's PostgreSQL database.
	DB DB `envPrefix:"DB_"`

	// Local is the client's SQLite database.
	Local Local `envPrefix:"LOCAL_"`
}

// DB holds connection settings for the server database.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Local holds the client database location.
type Local struct {
	// Path is the SQLite database file.
	// Env: STORAGE_LOCAL_PATH
	Path string `env:"PATH"`
}

// Server holds inbound transport settings.
type Server struct {
	// HTTPAddress is the record store API listen address, "host:port".
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the health service listen address, "host:port".
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the client's outbound settings.
type Adapter struct {
	// HTTPAddress is the record store API base address.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is probed by the connectivity monitor.
	// Env: ADAPTER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout bounds a single outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Login and Password are used to obtain a token when the credentials
	// file is missing or expired.
	// Env: ADAPTER_LOGIN, ADAPTER_PASSWORD
	Login    string `env:"LOGIN"`
	Password string `env:"PASSWORD"`

	// CredentialsFile holds the current bearer token.
	// Env: ADAPTER_CREDENTIALS_FILE
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

// Workers holds client monitor intervals.
type Workers struct {
	// ConnectivityInterval is the health probe period.
	// Env: WORKERS_CONNECTIVITY_INTERVAL
	ConnectivityInterval time.Duration `env:"CONNECTIVITY_INTERVAL"`

	// QueuePollInterval is the fallback period for queue-length checks.
	// Env: WORKERS_QUEUE_POLL_INTERVAL
	QueuePollInterval time.Duration `env:"QUEUE_POLL_INTERVAL"`

	// CredentialCheckInterval is the period of token expiry checks.
	// Env: WORKERS_CREDENTIAL_CHECK_INTERVAL
	CredentialCheckInterval time.Duration `env:"CREDENTIAL_CHECK_INTERVAL"`
}

// Sync holds engine tunables.
type Sync struct {
	// Domains lists the sync domains to run. Empty means all.
	// Env: SYNC_DOMAINS (comma separated)
	Domains []string `env:"DOMAINS"`

	// ToggleDelay is the debounce before an enable/disable request commits.
	// Env: SYNC_TOGGLE_DELAY
	ToggleDelay time.Duration `env:"TOGGLE_DELAY"`

	// UploadDelay enables the randomized delay before upload passes of the
	// backup domain.
	// Env: SYNC_UPLOAD_DELAY
	UploadDelay bool `env:"UPLOAD_DELAY"`

	// UploadDelayMin and UploadDelayMax bound the randomized delay.
	// Env: SYNC_UPLOAD_DELAY_MIN, SYNC_UPLOAD_DELAY_MAX
	UploadDelayMin time.Duration `env:"UPLOAD_DELAY_MIN"`
	UploadDelayMax time.Duration `env:"UPLOAD_DELAY_MAX"`

	// DownloadPageSize is the page size after the ramp-up pages.
	// Env: SYNC_DOWNLOAD_PAGE_SIZE
	DownloadPageSize int `env:"DOWNLOAD_PAGE_SIZE"`

	// SharedRateLimit is the number of remote calls per second shared by
	// all domains of the wallet. Zero disables the limiter.
	// Env: SYNC_SHARED_RATE_LIMIT
	SharedRateLimit float64 `env:"SHARED_RATE_LIMIT"`

	// SharedRateBurst is the token bucket size of the shared limiter.
	// Env: SYNC_SHARED_RATE_BURST
	SharedRateBurst int `env:"SHARED_RATE_BURST"`
}

// Tracing holds OpenTelemetry settings.
type Tracing struct {
	// Enabled turns span export on.
	// Env: TRACING_ENABLED
	Enabled bool `env:"ENABLED"`

	// Exporter is one of "none", "stdout", "otlp".
	// Env: TRACING_EXPORTER
	Exporter string `env:"EXPORTER"`

	// Endpoint is the OTLP collector endpoint.
	// Env: TRACING_ENDPOINT
	Endpoint string `env:"ENDPOINT"`

	// SampleRate is between 0 and 1.
	// Env: TRACING_SAMPLE_RATE
	SampleRate float64 `env:"SAMPLE_RATE"`
}

// GetStructuredConfig loads, merges and validates the configuration from all
// sources. For every field the first non-zero value wins, in this order:
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file (path resolved from 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags().
		withEnv().
		withFile().
		withDefaults().
		build()
}
