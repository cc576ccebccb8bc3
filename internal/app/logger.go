package app

import (
	"errors"
	"io"
	"log/slog"
	"strings"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// parseLogLevel maps a log-level name, in any case, to its slog level.
func parseLogLevel(s string) (slog.Level, error) {
	level, ok := logLevels[strings.ToLower(s)]
	if !ok {
		return 0, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return level, nil
}

// newLogger creates the diagnostic logger described by cfg. It does not set
// the global logger. Every record carries the build file, which tells the
// runs of a watch session and of parallel invocations apart.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler).With("buildfile", cfg.BuildFile)
}
