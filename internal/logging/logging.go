// Package logging builds slog loggers for the CLI and its subsystems.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding
type Format string

const (
	// TextFormat writes human-readable key=value lines
	TextFormat Format = "text"
	// JSONFormat writes one JSON object per line
	JSONFormat Format = "json"
)

// Config holds logger configuration
type Config struct {
	Format Format
	Level  string
	Output io.Writer // optional, defaults to stderr
}

// New creates a logger from the given configuration. Unknown levels and
// formats fall back to info/text rather than failing: logging must never
// stop a command from running.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == JSONFormat {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used in tests and
// wherever a subsystem requires a logger but output is unwanted.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
