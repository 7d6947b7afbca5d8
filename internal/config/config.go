package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/agrivisor/agrivisor/pkg/db"
	"github.com/agrivisor/agrivisor/pkg/logger"
	"github.com/agrivisor/agrivisor/pkg/redis"
)

// Config aggregates all service configuration, populated from environment
// variables (after an optional .env file) and an optional cache YAML file.
type Config struct {
	App      AppConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Advisory AdvisoryConfig
	Database db.Config
	Redis    redis.Config
	Sentry   logger.SentryConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Address         string        `env:"ADDRESS" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Empty means any origin is allowed.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// AuthConfig holds token-issuing settings.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
}

// CacheConfig holds advisory-cache settings. TTL categories and warm-up
// keys live in the YAML file so agronomists can tune them without a deploy.
type CacheConfig struct {
	File            string        `env:"CACHE_CONFIG_FILE" envDefault:"configs/cache.yaml"`
	SweepInterval   time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`
	RefreshSchedule string        `env:"MARKET_REFRESH_SCHEDULE" envDefault:"@every 30m"`
}

// AdvisoryConfig holds advisory data-source settings. Both are optional:
// without a feed URL mandi prices come from the built-in table, and without
// a model file crop recommendations use the heuristic ranking.
type AdvisoryConfig struct {
	MarketFeedURL string `env:"MARKET_FEED_URL"`
	CropModelFile string `env:"CROP_MODEL_FILE"`
}

// Load reads an optional .env file and parses environment variables.
func Load() (*Config, error) {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// CacheFile is the YAML-tunable part of the cache configuration.
type CacheFile struct {
	// TTL maps category names to lifetimes, e.g. market: 15m.
	TTL map[string]time.Duration `yaml:"ttl"`

	// Warmup lists the keys pre-populated at startup.
	Warmup WarmupSpec `yaml:"warmup"`
}

// WarmupSpec names the hot keys to pre-populate.
type WarmupSpec struct {
	WeatherDistricts []string     `yaml:"weather_districts"`
	Market           []MarketPair `yaml:"market"`
}

// MarketPair identifies a district/commodity price series.
type MarketPair struct {
	District  string `yaml:"district"`
	Commodity string `yaml:"commodity"`
}

// LoadCacheFile parses the cache YAML file. A missing file yields an empty
// spec so the service runs with built-in defaults.
func LoadCacheFile(path string) (*CacheFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &CacheFile{}, nil
		}
		return nil, fmt.Errorf("config: read cache file: %w", err)
	}

	var cf CacheFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("config: parse cache file: %w", err)
	}
	return &cf, nil
}
