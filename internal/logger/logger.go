// Package logger provides structured logging for pagemark.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	mu sync.RWMutex
)

// Options configures the logger.
type Options struct {
	Debug  bool      // enable debug level logging
	Quiet  bool      // only show errors
	JSON   bool      // output as JSON
	Output io.Writer // output destination (default: stderr)
}

// Init initializes the package logger with the specified options.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelError
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}
	defaultLogger = slog.New(handler)
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { get().Error(msg, args...) }
