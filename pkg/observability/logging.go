package observability

import (
	"log/slog"
	"os"
	"strings"
)

// LogConfig selects the slog level and output format.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" (default), "text"
}

// InitLogger builds the service logger and installs it as the slog
// default so library code logging through slog lands in the same
// stream. Production logs are JSON; "text" is for local runs.
func InitLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(level string) slog.Level {
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
