// Package observability provides the logging and metrics scaffolding every
// component acquires, independent of whether a process ever stands up a
// metrics listener.
package observability

import (
	"log/slog"
	"os"
)

// LogConfig mirrors the "logging" block of the configuration document.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// NewLogger builds the process-wide slog.Logger per cfg and installs it as
// slog.Default so components acquired via slog.Default().With(...) pick it
// up without being threaded a logger explicitly.
func NewLogger(cfg LogConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
