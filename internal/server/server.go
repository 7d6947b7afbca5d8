// Package server wires configuration, storage, the advisory cache, and the
// HTTP API into one runnable unit with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/agrivisor/agrivisor/internal/config"
	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/internal/service/finance"
	"github.com/agrivisor/agrivisor/internal/service/market"
	"github.com/agrivisor/agrivisor/internal/service/recommend"
	"github.com/agrivisor/agrivisor/internal/service/weather"
	"github.com/agrivisor/agrivisor/pkg/cache"
	"github.com/agrivisor/agrivisor/pkg/db"
	"github.com/agrivisor/agrivisor/pkg/redis"
)

// Server owns the HTTP listener, the advisory cache, and the background
// scheduler. Build one with New and drive it with Run.
type Server struct {
	cfg       *config.Config
	cacheFile *config.CacheFile
	log       *slog.Logger

	pool        *pgxpool.Pool
	redisClient goredis.UniversalClient
	cache       *cache.Cache[any]

	farmers *repository.FarmerRepository
	farms   *repository.FarmRepository

	weather   *weather.Service
	market    *market.Service
	finance   *finance.Service
	recommend *recommend.Service

	httpServer *http.Server
	scheduler  *scheduler
}

// New assembles the server from its external dependencies. The Redis client
// may be nil; recommendation persistence is then disabled.
func New(
	cfg *config.Config,
	cacheFile *config.CacheFile,
	log *slog.Logger,
	pool *pgxpool.Pool,
	redisClient goredis.UniversalClient,
) (*Server, error) {
	advisoryCache := cache.New[any](
		cache.WithTTLDefaults(cache.TTLDefaults(cacheFile.TTL)),
		cache.WithSweepInterval(cfg.Cache.SweepInterval),
		cache.WithLogger(log),
	)

	model, err := recommend.LoadModel(cfg.Advisory.CropModelFile)
	if err != nil {
		advisoryCache.Close()
		return nil, fmt.Errorf("server: load crop model: %w", err)
	}
	if model == nil {
		log.Info("no crop model configured, recommendations use heuristic ranking")
	} else {
		log.Info("crop model loaded", slog.String("version", model.Version))
	}

	s := &Server{
		cfg:         cfg,
		cacheFile:   cacheFile,
		log:         log,
		pool:        pool,
		redisClient: redisClient,
		cache:       advisoryCache,
		farmers:     repository.NewFarmerRepository(pool),
		farms:       repository.NewFarmRepository(pool),
	}

	s.weather = weather.NewService(advisoryCache, nil, log)
	s.market = market.NewService(advisoryCache, nil, cfg.Advisory.MarketFeedURL, log)
	s.finance = finance.NewService(advisoryCache)

	var store *recommend.ResultStore
	if redisClient != nil {
		store = recommend.NewResultStore(redisClient)
	}
	s.recommend = recommend.NewService(model, store, s.weather, log)

	s.httpServer = &http.Server{
		Addr:    cfg.App.Address,
		Handler: s.routes(),
	}

	sched, err := newScheduler(s, cfg.Cache.RefreshSchedule, log)
	if err != nil {
		advisoryCache.Close()
		return nil, err
	}
	s.scheduler = sched

	return s, nil
}

// Run warms the cache, starts the scheduler and the HTTP listener, and
// blocks until SIGINT/SIGTERM or a listener failure. Shutdown drains the
// HTTP server first, then stops the scheduler, the cache, and the clients.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s.warmup(ctx)
	s.scheduler.start()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	s.scheduler.stop()

	if err := s.cache.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.redisClient != nil {
		if err := redis.Shutdown(s.redisClient)(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.Shutdown(s.pool)(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		s.log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	s.log.Info("shutdown completed")
	return nil
}

// warmup pre-populates the advisory cache with the hot keys named in the
// cache file. Failures are logged and tolerated; the service starts cold for
// those keys.
func (s *Server) warmup(ctx context.Context) {
	var entries []cache.WarmEntry[any]

	for _, district := range s.cacheFile.Warmup.WeatherDistricts {
		we, err := s.weather.WarmEntry(district)
		if err != nil {
			s.log.Warn("skipping warm-up for unknown district", slog.String("district", district))
			continue
		}
		entries = append(entries, we)
	}

	for _, pair := range s.cacheFile.Warmup.Market {
		entries = append(entries, s.market.WarmEntry(pair.District, pair.Commodity))
	}

	if len(entries) == 0 {
		return
	}

	if err := cache.Warm(ctx, s.cache, s.log, entries); err != nil {
		s.log.Warn("cache warm-up finished with failures", slog.String("error", err.Error()))
		return
	}
	s.log.Info("cache warmed", slog.Int("entries", len(entries)))
}
