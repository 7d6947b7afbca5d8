package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

// scheduler drives the periodic background work: refreshing mandi prices and
// logging cache statistics.
type scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func newScheduler(s *Server, refreshSchedule string, log *slog.Logger) (*scheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc(refreshSchedule, s.refreshMarket); err != nil {
		return nil, fmt.Errorf("server: invalid market refresh schedule %q: %w", refreshSchedule, err)
	}

	if _, err := c.AddFunc("@hourly", func() {
		stats := s.cache.Stats()
		log.Info("advisory cache stats",
			slog.Int("total", stats.Total),
			slog.Int("active", stats.Active),
			slog.Int("expired", stats.Expired),
			slog.Int("pending", stats.Pending),
		)
	}); err != nil {
		return nil, fmt.Errorf("server: schedule stats logging: %w", err)
	}

	return &scheduler{cron: c, log: log}, nil
}

func (sc *scheduler) start() { sc.cron.Start() }

func (sc *scheduler) stop() {
	// Stop returns a context that resolves when running jobs finish.
	<-sc.cron.Stop().Done()
}

// refreshMarket drops cached mandi prices and immediately re-warms the hot
// district/commodity pairs so intraday price movements reach farmers without
// waiting for the TTL.
func (s *Server) refreshMarket() {
	dropped := s.market.Invalidate()
	s.log.Info("market snapshot refresh", slog.Int("dropped", dropped))

	var entries []cache.WarmEntry[any]
	for _, pair := range s.cacheFile.Warmup.Market {
		entries = append(entries, s.market.WarmEntry(pair.District, pair.Commodity))
	}
	if len(entries) == 0 {
		return
	}

	if err := cache.Warm(context.Background(), s.cache, s.log, entries); err != nil {
		s.log.Warn("market re-warm finished with failures", slog.String("error", err.Error()))
	}
}
