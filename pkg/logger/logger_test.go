package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/shoptet-client/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := logger.NewWithWriter(&buf, "info", logger.FormatJSON)
	log.Debug("hidden")
	log.Info("visible", "shop", "demo")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "demo", entry["shop"])
}

func TestNewWithWriter_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := logger.NewWithWriter(&buf, "debug", logger.FormatConsole)
	log.Debug("refreshing token", "outcome", "minted")

	assert.Contains(t, buf.String(), "refreshing token")
	assert.Contains(t, buf.String(), "outcome=minted")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	adapter := logger.NewAdapter(logger.NewWithWriter(&buf, "debug", logger.FormatText))
	adapter.Debug("HTTP Request", map[string]interface{}{"method": "GET"})
	adapter.Warn("slow", nil)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "level=WARN")
}
