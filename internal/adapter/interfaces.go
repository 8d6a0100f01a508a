// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter talks to the remote record store over HTTP.
//
// [RecordStoreClient] implements engine.RemoteRecordStore. Failed calls are
// wrapped with the sentinels of package retry so the sync engine can pick a
// retry class: 401 is an auth failure, 404 with the container_not_found code
// is a missing container, 429 and 503 are a temporarily unavailable account
// carrying the Retry-After hint, and 409 is a conflict.
package adapter

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
)

// AccountClient obtains bearer tokens for a record store account.
type AccountClient interface {
	// Register creates the account and returns its first token.
	Register(ctx context.Context, login, authHash string) (string, error)
	// Login returns a fresh token for an existing account.
	Login(ctx context.Context, login, authHash string) (string, error)
}

// RecordStore is the full client surface: the engine's remote store plus
// account management and the bearer token in use.
type RecordStore interface {
	engine.RemoteRecordStore
	AccountClient

	SetToken(token string)
	Token() string
}
