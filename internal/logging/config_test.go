package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     slog.Level
	}{
		{"DEBUG level", "DEBUG", slog.LevelDebug},
		{"debug level lowercase", "debug", slog.LevelDebug},
		{"INFO level", "INFO", slog.LevelInfo},
		{"WARN level", "WARN", slog.LevelWarn},
		{"WARNING level", "WARNING", slog.LevelWarn},
		{"ERROR level", "ERROR", slog.LevelError},
		{"empty string defaults to INFO", "", slog.LevelInfo},
		{"invalid value defaults to INFO", "INVALID", slog.LevelInfo},
		{"value with whitespace", "  DEBUG  ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envValue)

			if got := GetLogLevel(); got != tt.want {
				t.Errorf("GetLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")

	var buf bytes.Buffer
	logger := New(&buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("key", "value"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
