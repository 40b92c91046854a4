package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/httplog/v2"
)

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// Setup installs the process-wide slog default and returns it.
func Setup(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// NewRequestLogger builds the per-request logger used by the HTTP router.
func NewRequestLogger(level, format, env string) *httplog.Logger {
	return httplog.NewLogger("code-assessment", httplog.Options{
		LogLevel:         ParseLevel(level),
		JSON:             strings.EqualFold(format, "json"),
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": env,
		},
	})
}
