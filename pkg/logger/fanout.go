package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout duplicates records to every sink, so stdout JSON and the Sentry
// forwarder see the same stream. A record is cloned per sink because
// handlers may retain it.
type fanout []slog.Handler

func newFanout(sinks ...slog.Handler) slog.Handler {
	return fanout(sinks)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, s := range f {
		if !s.Enabled(ctx, rec.Level) {
			continue
		}
		if err := s.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, s := range f {
		next[i] = s.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, s := range f {
		next[i] = s.WithGroup(name)
	}
	return next
}
