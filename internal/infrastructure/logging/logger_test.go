package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
)

func TestNew_Outputs(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		logger := New(config.LoggingConfig{Level: "info", Format: "json", Output: output}, "1.0.0")
		if logger == nil {
			t.Fatalf("New(output=%q) returned nil", output)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewWithWriter_JSONDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "2.1.0", &buf)

	logger.With("component", "bridge").Info("started", "camera", "cam-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]string{
		"service":   "raspicam",
		"version":   "2.1.0",
		"component": "bridge",
		"camera":    "cam-1",
		"msg":       "started",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %q", k, record[k], v)
		}
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "dev", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("warn record missing from text output: %q", out)
	}
}

func TestDefaultAndDiscard(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	d := Discard()
	if d.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger reports records as enabled")
	}
}
