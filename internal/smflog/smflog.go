// Package smflog provides the command-line tools' shared structured logger;
// the core engine package does not use it.
package smflog

import (
	"fmt"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// Init configures the package-level logger at the given level ("debug",
// "info", "warn", or "error") and installs it as slog's default.
func Init(level string) error {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// Get returns the package logger, falling back to slog.Default() if Init
// hasn't been called.
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
