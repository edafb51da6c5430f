// Package logger builds the process-wide structured logger.
//
// It extends log/slog with two capabilities: context extractors that add
// attributes carried by a context.Context to every record, and optional
// Sentry reporting.
//
// # Basic Usage
//
//	log, err := logger.New(logger.Config{Level: "debug", Format: logger.FormatText}, os.Stderr,
//		logger.RunIDExtractor(),
//	)
//	if err != nil {
//		return err
//	}
//
//	ctx = logger.WithRunID(ctx, runID)
//	log.InfoContext(ctx, "dispatch started", slog.Int("total", 120))
//	// time=... level=INFO msg="dispatch started" total=120 run_id=...
//
// # Sentry Integration
//
// When Config.Sentry.DSN is set, records are also sent to Sentry: errors
// create issues and warnings are stored as logs (only errors when MinLevel
// is "error"). Call Flush before the process exits. If Sentry cannot be
// initialized, the failure is logged and logging continues locally.
//
// # Handler Decoration
//
// LogHandlerDecorator wraps any slog.Handler, so extractors also work with
// custom handlers:
//
//	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	log := slog.New(logger.NewLogHandlerDecorator(h, logger.RunIDExtractor()))
//
// NewNope returns a logger that discards everything; it is the default
// wherever a logger is optional.
package logger
