// Package logging wraps log/slog with the conventions the monitor uses
// everywhere: JSON output, level from LOG_LEVEL, and batch IDs carried
// through context so every record of one discovery cycle shares a
// correlation key.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx = logging.ContextWithBatchID(ctx, batchID)
//	logging.WithBatchID(ctx, logger).Info("starting discovery cycle")
package logging
