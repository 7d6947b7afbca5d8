package cache

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock         func() time.Time
	log           *slog.Logger
	ttls          TTLDefaults
	sweepInterval time.Duration
}

func defaultOptions() *options {
	return &options{
		clock:         time.Now,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		ttls:          DefaultTTLs(),
		sweepInterval: 5 * time.Minute,
	}
}

// WithTTLDefaults sets the per-category default TTLs used when a request
// carries no explicit TTL.
func WithTTLDefaults(ttls TTLDefaults) Option {
	return func(o *options) {
		if len(ttls) > 0 {
			o.ttls = ttls
		}
	}
}

// WithSweepInterval sets how often the background sweeper removes expired
// entries. Zero disables the sweeper; expired entries are then evicted only
// when accessed.
// Default: 5 minutes.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithLogger sets the logger used by the background sweeper.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests that need to
// advance time without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}
