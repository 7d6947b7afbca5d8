package main

import (
	"context"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agrivisor/agrivisor/internal/config"
	"github.com/agrivisor/agrivisor/internal/middleware"
	"github.com/agrivisor/agrivisor/internal/server"
	"github.com/agrivisor/agrivisor/migrations"
	"github.com/agrivisor/agrivisor/pkg/db"
	"github.com/agrivisor/agrivisor/pkg/logger"
	"github.com/agrivisor/agrivisor/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("agrivisor exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(
		cfg.Sentry,
		logger.ParseLevel(cfg.App.LogLevel),
		middleware.RequestIDExtractor(),
	)

	cacheFile, err := config.LoadCacheFile(cfg.Cache.File)
	if err != nil {
		return err
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.Database.MigrationsTable, log); err != nil {
		pool.Close()
		return err
	}

	var redisClient goredis.UniversalClient
	if cfg.Redis.ConnectionURL != "" {
		redisClient, err = redis.Open(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return err
		}
	} else {
		log.Info("redis not configured, recommendation persistence disabled")
	}

	srv, err := server.New(cfg, cacheFile, log, pool, redisClient)
	if err != nil {
		pool.Close()
		return err
	}

	return srv.Run(ctx)
}
