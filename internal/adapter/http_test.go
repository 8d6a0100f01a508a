// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient создаёт клиент, направленный на тестовый сервер
func newTestClient(t *testing.T, handler http.HandlerFunc) *RecordStoreClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewRecordStoreClient(config.Adapter{HTTPAddress: srv.URL, RequestTimeout: 5 * time.Second}, nil, logger.Nop())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ── account ──────────────────────────────────────────────────────────────────

func TestRegister_StoresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var u models.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		assert.Equal(t, "alice", u.Login)
		assert.Equal(t, "hash", u.AuthHash)

		writeJSON(w, http.StatusOK, models.TokenResponse{Token: "tok-1"})
	})

	token, err := c.Register(context.Background(), "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "tok-1", c.Token())
}

func TestLogin_TokenFromHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Authorization", "Bearer tok-2")
		w.WriteHeader(http.StatusOK)
	})

	token, err := c.Login(context.Background(), "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestAccount_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"wrong password", http.StatusUnauthorized, ErrInvalidCredentials},
		{"login taken", http.StatusConflict, ErrLoginAlreadyExists},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"server error", http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.Login(context.Background(), "alice", "hash")
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, c.Token())
		})
	}
}

// ── records ──────────────────────────────────────────────────────────────────

func TestCreateContainer_SendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/containers/abc", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	c.SetToken(" tok ")

	require.NoError(t, c.CreateContainer(context.Background(), "abc"))
}

func TestModify_DecodesResults(t *testing.T) {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/containers/abc/records/modify", r.URL.Path)

		var req models.ModifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Saves, 1)
		assert.Equal(t, []byte("ct"), req.Saves[0].Ciphertext)
		assert.Equal(t, []string{"r2"}, req.Deletes)

		writeJSON(w, http.StatusOK, models.ModifyResponse{Results: []models.ItemResult{
			{RecordID: "r1", Status: models.ItemOK, Metadata: &models.RecordMetadata{RecordID: "r1", ChangeTag: "t1", CreatedAt: at, ModifiedAt: at}},
			{RecordID: "r2", Status: models.ItemNotFound},
		}})
	})

	results, err := c.Modify(context.Background(), "abc", models.ModifyRequest{
		Saves:   []models.RecordSave{{RecordID: "r1", SubKind: models.SubKindPayment, Ciphertext: []byte("ct"), CreatedAt: at}},
		Deletes: []string{"r2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "t1", results[0].Metadata.ChangeTag)
	assert.Equal(t, models.ItemNotFound, results[1].Status)
}

func TestQuery_PassesCursor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var q models.RecordQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "cur-1", q.Cursor)
		assert.Equal(t, 4, q.Limit)

		writeJSON(w, http.StatusOK, models.RecordPage{Records: []models.Record{{RecordID: "r1"}}, Cursor: "cur-2"})
	})

	page, err := c.Query(context.Background(), "abc", models.RecordQuery{SubKind: models.SubKindCard, Limit: 4, Cursor: "cur-1"})
	require.NoError(t, err)
	assert.Equal(t, "cur-2", page.Cursor)
	assert.Len(t, page.Records, 1)
}

func TestFetchMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.MetadataRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"r1", "r2"}, req.RecordIDs)

		writeJSON(w, http.StatusOK, models.MetadataResponse{Metadata: []models.RecordMetadata{{RecordID: "r2", ChangeTag: "t"}}})
	})

	meta, err := c.FetchMetadata(context.Background(), "abc", []string{"r1", "r2"})
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, "r2", meta[0].RecordID)
}

// ── error classes ────────────────────────────────────────────────────────────

func TestRecordCalls_ErrorClasses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		header    map[string]string
		wantClass retry.Class
		wantHint  time.Duration
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantClass: retry.ClassAuthRequired},
		{
			name: "container missing", status: http.StatusNotFound,
			body:      models.ErrorResponse{Code: CodeContainerNotFound, Message: "no container"},
			wantClass: retry.ClassContainerMissing,
		},
		{name: "plain not found", status: http.StatusNotFound, wantClass: retry.ClassOther},
		{name: "conflict", status: http.StatusConflict, wantClass: retry.ClassConflict},
		{
			name: "throttled", status: http.StatusTooManyRequests,
			header:    map[string]string{"Retry-After": "30"},
			wantClass: retry.ClassTransientAccount, wantHint: 30 * time.Second,
		},
		{name: "maintenance", status: http.StatusServiceUnavailable, wantClass: retry.ClassTransientAccount},
		{name: "bad gateway", status: http.StatusBadGateway, wantClass: retry.ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				if tt.body != nil {
					writeJSON(w, tt.status, tt.body)
					return
				}
				w.WriteHeader(tt.status)
			})

			_, err := c.Query(context.Background(), "abc", models.RecordQuery{Limit: 1})
			require.Error(t, err)
			assert.Equal(t, tt.wantClass, retry.Classify(err))
			assert.Equal(t, tt.wantHint, retry.MinRetryHint(err))
		})
	}
}

func TestRecordCalls_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.DeleteContainer(ctx, "abc")
	assert.Equal(t, retry.ClassCancelled, retry.Classify(err))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 5*time.Second, parseRetryAfter("5", now))
	assert.Equal(t, time.Minute, parseRetryAfter(now.Add(time.Minute).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("-3", now))
	assert.Zero(t, parseRetryAfter("soon", now))
	assert.Zero(t, parseRetryAfter("", now))
}

func TestNewRecordStoreClient_Address(t *testing.T) {
	_, err := NewRecordStoreClient(config.Adapter{}, nil, logger.Nop())
	assert.ErrorIs(t, err, ErrEmptyAddress)

	c, err := NewRecordStoreClient(config.Adapter{HTTPAddress: "localhost:8080/"}, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.client.BaseURL)
}
