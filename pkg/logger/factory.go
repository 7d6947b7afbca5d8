package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON-formatted logger writing to stdout with optional
// context extractors applied per log call.
func New(level slog.Level, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(NewLogHandlerDecorator(h, extractors...))
}

// NewNope creates a no-op logger that discards all output.
// Use as a default when logging is not configured, e.g. in tests.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a configuration string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
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
