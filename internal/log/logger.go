// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Format    string // "text" or "json"
	Component string
	Output    io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    "text",
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a JSON handler for "json" and a tint text handler
// otherwise.
func NewHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      cfg.Level,
		TimeFormat: time.Kitchen,
	})
}

// New creates a logger tagged with cfg.Component.
func New(cfg Config) *slog.Logger {
	logger := slog.New(NewHandler(cfg))
	if cfg.Component != "" {
		logger = logger.With(FieldComponent, cfg.Component)
	}
	return logger
}

// Setup builds a logger and installs it as the slog default.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
