package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, b []byte) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(b), &entry))
	return entry
}

// ─────────────────────────────────────────────
// constructors
// ─────────────────────────────────────────────

func TestNewLogger_SetsGlobals(t *testing.T) {
	require.NotNil(t, NewLogger("test"))

	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNewLogger_RoleAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "sync-daemon")

	l.Info().Msg("hello")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "sync-daemon", entry["role"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")
}

func TestNewClientLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	l := NewClientLogger("client", path)
	l.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "client", decodeEntry(t, data)["role"])
}

func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Info().Msg("dropped")

	assert.Empty(t, buf.String())
}

// ─────────────────────────────────────────────
// child loggers
// ─────────────────────────────────────────────

func TestGetChildLogger_InheritsRole(t *testing.T) {
	var buf bytes.Buffer
	parent := newLogger(&buf, "parent-role")

	child := parent.GetChildLogger()
	assert.NotSame(t, parent, child)

	child.Info().Msg("child")
	assert.Equal(t, "parent-role", decodeEntry(t, buf.Bytes())["role"])
}

func TestWithDomain_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "client").WithDomain("backup", "upload")

	l.Info().Msg("batch")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "backup", entry["domain"])
	assert.Equal(t, "upload", entry["component"])
	assert.Equal(t, "client", entry["role"])
}

func TestWithComponent_NoDomainField(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "client").WithComponent("queue")

	l.Info().Msg("count")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "queue", entry["component"])
	assert.NotContains(t, entry, "domain")
}

// ─────────────────────────────────────────────
// context helpers
// ─────────────────────────────────────────────

func TestFromContext_ReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "abc").Logger()
	ctx := zl.WithContext(context.Background())

	FromContext(ctx).Info().Msg("from context")

	assert.Equal(t, "abc", decodeEntry(t, buf.Bytes())["trace_id"])
}

func TestFromContext_WithoutLogger(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}

func TestFromRequest_ReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "req-1").Logger()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(zl.WithContext(req.Context()))

	FromRequest(req).Info().Msg("from request")

	assert.Equal(t, "req-1", decodeEntry(t, buf.Bytes())["trace_id"])
}
