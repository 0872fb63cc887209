package diag

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("window width", "window", "PP", "width", 28.1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "window width", rec["msg"])
	assert.Equal(t, "PP", rec["window"])
	assert.Equal(t, 28.1, rec["width"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("tag not found", "tag", "orbit")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "tag=orbit")
}
