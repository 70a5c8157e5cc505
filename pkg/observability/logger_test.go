// Package observability tests
package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "info", FormatJSON).With(String("component", "chunker"))

	log.Debug("hidden")
	log.Warn("section skipped", Int("index", 2), Err(errors.New("bad entry")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "section skipped", rec["msg"])
	assert.Equal(t, "chunker", rec["component"])
	assert.Equal(t, float64(2), rec["index"])
	assert.Equal(t, "bad entry", rec["error"])
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "debug", "")

	log.Debug("counting", Bool("exact", false), Strings("keys", []string{"reviews"}),
		Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "exact=false")
	assert.Contains(t, out, "elapsed=1.5s")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Error("ignored")
	assert.NotNil(t, log.With(String("k", "v")))
}
