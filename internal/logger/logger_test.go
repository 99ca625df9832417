package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithConfigWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	require.NoError(t, InitWithConfig(Config{Level: LevelDebug, OutputPath: path, Format: "json"}))
	t.Cleanup(func() { _ = InitWithConfig(Config{Level: LevelInfo, OutputPath: "stderr", Format: "text"}) })

	ctx := ContextWithRequestID(context.Background(), "req-1")
	WithContext(ctx, nil).Info("turn processed", "user_id", 7)
	require.NoError(t, Close())
	require.NoError(t, Close(), "second close is a no-op")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"turn processed"`)
	assert.Contains(t, string(data), `"request_id":"req-1"`)
	assert.Contains(t, string(data), `"user_id":7`)
}

func TestWithContextTagsInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithContext(ContextWithRequestID(context.Background(), "abc"), base).Info("hello")
	assert.Contains(t, buf.String(), "request_id=abc")

	assert.Same(t, base, WithContext(context.Background(), base))
	assert.Same(t, base, WithContext(ContextWithRequestID(context.Background(), ""), base))
}

func TestRequestID(t *testing.T) {
	_, ok := RequestID(context.Background())
	assert.False(t, ok)

	id, ok := RequestID(ContextWithRequestID(context.Background(), "r-9"))
	assert.True(t, ok)
	assert.Equal(t, "r-9", id)
}
