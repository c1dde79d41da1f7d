package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
)

// Mask replaces redacted attribute values.
const Mask = "***"

// sensitiveKey matches attribute keys whose values must never reach the log output.
var sensitiveKey = regexp.MustCompile(`(?i)(api[_-]?key|credential|authorization|secret|token$|password)`)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout chat UI).
// It standardizes common keys (e.g., "error" -> "err") and masks sensitive keys.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, false)
}

// NewWithWriter creates a logger writing to w, as text or JSON.
func NewWithWriter(w io.Writer, level slog.Level, jsonFormat bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	// Standardize 'error' key to 'err'
	if a.Key == "error" {
		a.Key = "err"
	}
	if sensitiveKey.MatchString(a.Key) && a.Value.Kind() != slog.KindGroup {
		a.Value = slog.StringValue(Mask)
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
