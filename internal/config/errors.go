package config

import "errors"

// Validation errors returned when a configuration view is incomplete.
var (
	// ErrInvalidAdapterConfigs indicates missing record store address or
	// request timeout on the client.
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates a missing database DSN or path.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates missing keys or wallet identity.
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidWorkerConfigs indicates a zero monitor interval.
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
	// ErrInvalidSyncConfigs indicates inconsistent engine tunables.
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidServerConfigs indicates that no listen address is set.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
)
