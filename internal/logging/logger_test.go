package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvAddSource, "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "json" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Level != slog.LevelInfo {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelInfo)
	}
	if cfg.AddSource {
		t.Fatal("AddSource = true, want false")
	}
}

func TestLoadConfigFromEnv_ValidValues(t *testing.T) {
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvLevel, "warning")
	t.Setenv(EnvAddSource, "1")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "text")
	}
	if cfg.Level != slog.LevelWarn {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelWarn)
	}
	if !cfg.AddSource {
		t.Fatal("AddSource = false, want true")
	}
}

func TestLoadConfigFromEnv_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		format string
		level  string
	}{
		{name: "format", format: "yaml"},
		{name: "level", level: "trace"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvFormat, tc.format)
			t.Setenv(EnvLevel, tc.level)

			if _, err := LoadConfigFromEnv(); err == nil {
				t.Fatalf("LoadConfigFromEnv() error = nil, want error")
			}
		})
	}
}

func TestNewLogger_JSONIncludesStaticAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(DefaultConfig(), &out, "vulnconsole serve")
	logger.Info("hello")

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected JSON log line")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "vulnconsole" {
		t.Fatalf("app = %v, want %q", got, "vulnconsole")
	}
	if got := payload["command"]; got != "vulnconsole serve" {
		t.Fatalf("command = %v, want %q", got, "vulnconsole serve")
	}
}

func TestNewLogger_DefaultsCommandToAppName(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Format: "text", Level: slog.LevelInfo}, &out, "  ")
	logger.Info("hello")

	if !strings.Contains(out.String(), "command=vulnconsole") {
		t.Fatalf("output = %q, want command=vulnconsole", out.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	logger := slog.Default()
	if OrDiscard(logger) != logger {
		t.Fatal("OrDiscard(logger) did not return the given logger")
	}
}

func TestLoadConfigFromEnv_AcceptsLevelOffsets(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "DEBUG+2")
	t.Setenv(EnvAddSource, "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Level != slog.LevelDebug+2 {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelDebug+2)
	}
}

func TestNewLogger_UnknownFormatFallsBackToJSON(t *testing.T) {
	var out bytes.Buffer
	NewLogger(Config{Format: "xml", Level: slog.LevelInfo}, &out, "vulnconsole vulns").Info("hello")

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
}
