// Package logging builds the slog loggers used by every command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvFormat    = "LOG_FORMAT"
	EnvLevel     = "LOG_LEVEL"
	EnvAddSource = "LOG_ADD_SOURCE"
)

const appName = "vulnconsole"

type handlerFactory func(io.Writer, *slog.HandlerOptions) slog.Handler

var handlers = map[string]handlerFactory{
	"json": func(w io.Writer, opts *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, opts) },
	"text": func(w io.Writer, opts *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, opts) },
}

// Config selects the handler, threshold and source annotation of a logger.
type Config struct {
	Format    string
	Level     slog.Level
	AddSource bool
}

type BootstrapOptions struct {
	Command string
	Writer  io.Writer
}

// DefaultConfig logs JSON at info.
func DefaultConfig() Config {
	return Config{Format: "json", Level: slog.LevelInfo}
}

// LoadConfigFromEnv reads LOG_FORMAT, LOG_LEVEL and LOG_ADD_SOURCE. Unset
// variables keep their DefaultConfig value; unknown values are errors.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if raw := strings.ToLower(strings.TrimSpace(os.Getenv(EnvFormat))); raw != "" {
		if _, ok := handlers[raw]; !ok {
			return Config{}, fmt.Errorf("%s must be one of: %s", EnvFormat, strings.Join(formatNames(), ", "))
		}
		cfg.Format = raw
	}

	if raw := strings.TrimSpace(os.Getenv(EnvLevel)); raw != "" {
		if strings.EqualFold(raw, "warning") {
			raw = "warn"
		}
		if err := cfg.Level.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("%s must be one of: debug, info, warn, error", EnvLevel)
		}
	}

	cfg.AddSource = strings.TrimSpace(os.Getenv(EnvAddSource)) == "1"
	return cfg, nil
}

func formatNames() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewLogger returns a logger writing to w (stdout when nil) with app and
// command attached to every record.
func NewLogger(cfg Config, w io.Writer, command string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	build, ok := handlers[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		build = handlers["json"]
	}
	handler := build(w, &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource})

	if command = strings.TrimSpace(command); command == "" {
		command = appName
	}
	return slog.New(handler).With("app", appName, "command", command)
}

// BootstrapFromEnv builds a logger from the environment and installs it as
// the slog default.
func BootstrapFromEnv(opts BootstrapOptions) (*slog.Logger, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, opts.Writer, opts.Command)
	slog.SetDefault(logger)
	return logger, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns logger, or a discarding logger when it is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
