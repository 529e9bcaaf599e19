package observability

import (
	"log/slog"
	"testing"
)

func TestNewLoggerDefaultsToInfoText(t *testing.T) {
	logger := NewLogger(LogConfig{})
	if logger == nil {
		t.Fatalf("expected non-nil logger")
	}
	if !logger.Enabled(nil, slog.LevelInfo) {
		t.Fatalf("expected info level enabled by default")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Fatalf("expected debug level disabled by default")
	}
}

func TestNewLoggerDebugLevel(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "debug"})
	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Fatalf("expected debug level enabled")
	}
}
