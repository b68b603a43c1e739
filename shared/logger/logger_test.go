package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(t *testing.T, level string, output *bytes.Buffer) *Logger {
	t.Helper()

	l, err := New(&Config{
		Level:      level,
		Format:     "json",
		TimeFormat: time.RFC3339,
		writer:     output,
	})
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func decodeLines(t *testing.T, output *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel string
		wantMsgs  int
	}{
		{name: "debug keeps everything", level: "debug", wantLevel: "DEBUG", wantMsgs: 4},
		{name: "info drops debug", level: "info", wantLevel: "INFO", wantMsgs: 3},
		{name: "warn drops info", level: "warn", wantLevel: "WARN", wantMsgs: 2},
		{name: "error only", level: "error", wantLevel: "ERROR", wantMsgs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			l := newJSONLogger(t, tt.level, output)

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")
			l.Error("error message", slog.String("code", "500"))

			entries := decodeLines(t, output)
			require.Len(t, entries, tt.wantMsgs)
			assert.Equal(t, tt.wantLevel, entries[0]["level"])
			assert.Equal(t, "500", entries[len(entries)-1]["code"])
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	output := &bytes.Buffer{}

	l, err := New(&Config{Level: "info", Format: "console", writer: output})
	require.NoError(t, err)

	l.Info("console test")

	// tint abbreviates levels
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "console test")
}

func TestNew_SourceLocation(t *testing.T) {
	output := &bytes.Buffer{}

	l, err := New(&Config{Level: "info", Format: "json", EnableSource: true, writer: output})
	require.NoError(t, err)

	l.Info("message with source")

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	source, ok := entries[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, source, "file")
	assert.Contains(t, source, "line")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("written to file", slog.String("search", "golang"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"search":"golang"`)
}

func TestNew_FileOutputUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "api.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.Error(t, err)
	assert.Nil(t, l)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestNewDefaultAndNop(t *testing.T) {
	assert.NotNil(t, NewDefault().Logger)

	nop := NewNop()
	require.NotNil(t, nop.Logger)
	nop.Error("discarded")
	assert.NoError(t, nop.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		// case-sensitive, unknown values fall back to info
		{"DEBUG", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLogger_Derived(t *testing.T) {
	output := &bytes.Buffer{}
	l := newJSONLogger(t, "info", output)

	l.WithGroup("feed").Info("grouped", slog.String("search", "go"))
	l.WithAttrs(slog.String("request_id", "12345")).Info("with attrs")
	l.With(slog.String("service", "api"), slog.Int("version", 1)).Info("with args")

	entries := decodeLines(t, output)
	require.Len(t, entries, 3)

	group, ok := entries[0]["feed"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "go", group["search"])

	assert.Equal(t, "12345", entries[1]["request_id"])

	assert.Equal(t, "api", entries[2]["service"])
	assert.Equal(t, float64(1), entries[2]["version"])
}
