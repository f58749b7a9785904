package trackio

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with trackio-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDataset adds a dataset name field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// WithBatch adds a batch index field to the logger.
func (l *Logger) WithBatch(batch int) *Logger {
	return &Logger{
		Logger: l.Logger.With("batch", batch),
	}
}

// LogCompile logs a folder compilation.
func (l *Logger) LogCompile(ctx context.Context, dir, out string, batches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compile failed",
			"dir", dir,
			"out", out,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "compile completed",
			"dir", dir,
			"out", out,
			"batches", batches,
		)
	}
}

// LogFetch logs a dataset download.
func (l *Logger) LogFetch(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fetch completed",
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogPublish logs a dataset upload and registration.
func (l *Logger) LogPublish(ctx context.Context, name string, revision uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "publish completed",
			"name", name,
			"revision", revision,
		)
	}
}
