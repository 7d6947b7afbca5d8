// Package logger configures structured JSON logging for the agrivisor
// services on top of log/slog.
//
// [New] builds a stdout JSON logger; [NewWithSentry] additionally forwards
// warnings and errors to Sentry when a DSN is configured. Both accept
// [ContextExtractor] functions that pull request-scoped attributes (request
// ID, farmer ID) out of the context on every log call:
//
//	log := logger.New(slog.LevelInfo, middleware.RequestIDLogExtractor())
//	log.InfoContext(ctx, "market prices refreshed", slog.String("district", d))
//
// [NewNope] returns a discard logger for tests.
package logger
