// Package logging wraps log/slog with the logger constructors and context
// helpers used across the monitor. All components log structured JSON to
// stdout; the batch ID helpers tie log lines from one discovery cycle
// together.
package logging

import (
	"context"
	"log/slog"
	"os"
)

func levelFromEnv() slog.Level {
	if os.Getenv("LOG_LEVEL") == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger builds the production logger: JSON on stdout, level taken from
// the LOG_LEVEL environment variable (only "debug" lowers it from info),
// source locations attached at warn and below.
func NewLogger() *slog.Logger {
	level := levelFromEnv()
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
}

// NewTextLogger is the human-readable variant of NewLogger for local runs.
func NewTextLogger() *slog.Logger {
	level := levelFromEnv()
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
}

// WithBatchID returns a logger carrying the discovery batch ID from ctx as a
// batch_id attribute, or the logger unchanged when no batch ID is set.
func WithBatchID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	batchID := BatchIDFromContext(ctx)
	if batchID == "" {
		return logger
	}
	return logger.With("batch_id", batchID)
}

// ContextWithBatchID stores a discovery batch ID in the context.
func ContextWithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDContextKey, batchID)
}

// BatchIDFromContext returns the batch ID stored in ctx, or "".
func BatchIDFromContext(ctx context.Context) string {
	if batchID, ok := ctx.Value(batchIDContextKey).(string); ok {
		return batchID
	}
	return ""
}

// WithFields returns a logger with the given fields attached to every record.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext returns the logger stored in ctx, falling back to
// slog.Default. Pairs with WithLogger for handing a scoped logger down a
// call chain without widening signatures.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const (
	loggerContextKey  contextKey = "logger"
	batchIDContextKey contextKey = "batch_id"
)
