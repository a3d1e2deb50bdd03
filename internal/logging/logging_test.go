package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		hasError bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestJSONOutputAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf, Component: "engine"})
	l.Info("recording", "job", "abc", "api_key", "sk-123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recording", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "abc", entry["job"])
	assert.Equal(t, "[REDACTED]", entry["api_key"])
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	_, err := Setup("info", "xml", nil)
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
