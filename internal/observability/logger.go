package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogSettings is the subset of configuration the logger needs, kept as its
// own type so this package does not import config.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// NewLogger builds a slog.Logger writing to stdout with the configured level
// and format. Unknown levels fall back to info, unknown formats to JSON.
func NewLogger(settings LogSettings) *slog.Logger {
	return newLogger(settings, os.Stdout)
}

func newLogger(settings LogSettings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(settings.Level)}

	var handler slog.Handler
	if strings.EqualFold(settings.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
