package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wanderplan/internal/logging"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("info", "json", &buf)

	log.Info("built itinerary",
		"cityId", int64(7),
		"days", 3,
		"ratio", 0.5,
		"cached", true,
		"took", 2*time.Second,
		"error", errors.New("boom"),
	)

	m := decodeLine(t, &buf)
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "built itinerary", m["message"])
	assert.EqualValues(t, 7, m["cityId"])
	assert.EqualValues(t, 3, m["days"])
	assert.EqualValues(t, 0.5, m["ratio"])
	assert.Equal(t, true, m["cached"])
	assert.Equal(t, "boom", m["error"])
	assert.Contains(t, m, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("warn", "json", &buf)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, log.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, log.Enabled(t.Context(), slog.LevelError))

	log.Warn("shown")
	assert.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("debug", "json", &buf).
		With("component", "scoring").
		WithGroup("req")

	log.Debug("scored", "scope", "city", slog.Group("weights", "food", 0.2))

	m := decodeLine(t, &buf)
	assert.Equal(t, "debug", m["level"])
	assert.Equal(t, "scoring", m["component"])
	assert.Equal(t, "city", m["req.scope"])
	assert.EqualValues(t, 0.2, m["req.weights.food"])
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("info", "console", &buf)

	log.Info("listening", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "listening")
	assert.Contains(t, out, "port=")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}
