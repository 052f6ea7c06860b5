package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a logger that writes to w. It mirrors the shared
// stdout logger for processes that cannot log to stdout: the dashboard owns
// the terminal and quakectl keeps stdout for command output. format is
// "json" or "text"; level is one of debug, info, warn, error and falls back
// to info. Unlike the shared logger it does not replace slog's default.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
