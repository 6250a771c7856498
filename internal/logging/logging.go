// Package logging provides structured logging for the entralog pipeline.
//
// This package wraps the standard library's log/slog package to provide
// consistent logging across all components. It supports both text and JSON
// output formats, configurable log levels, component-based loggers, and an
// optional log file that is written alongside stdout.
//
// Usage:
//
//	// Initialize at startup
//	logging.Init(slog.LevelInfo, false, "") // Text format, stdout only
//	logging.Init(slog.LevelInfo, false, "app_logs/fetch.log")
//
//	// Get a component logger
//	log := logging.Component("download")
//	log.Info("run started", "workers", 8)
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format.
// If jsonFormat is true, logs are output as JSON; otherwise, human-readable
// text. If logFile is non-empty, output is duplicated to that file (parent
// directories are created as needed); a file that cannot be opened degrades
// to stdout-only logging rather than failing startup.
func Init(level slog.Level, jsonFormat bool, logFile string) {
	var out io.Writer = os.Stdout

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
			if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				out = io.MultiWriter(os.Stdout, f)
			}
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// InitWithHandler initializes the global logger with a custom handler.
// This is useful for testing or custom output destinations.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// ParseLevel parses a level string ("debug", "info", "warn", "error").
// Unknown values default to info.
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

// Component returns a logger for a specific component.
// The component name is added as an attribute to all log entries.
//
// Example:
//
//	log := logging.Component("combine")
//	log.Info("started") // Output: time=... level=INFO component=combine msg=started
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false, "")
	}
	return Logger.With("component", name)
}
