// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store driver names accepted by CACHE_STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	GamesDBBaseURL string        `env:"GAMESDB_BASE_URL" envDefault:"https://api.thegamesdb.net"`
	GamesDBAPIKey  string        `env:"GAMESDB_API_KEY"`
	GamesDBTimeout time.Duration `env:"GAMESDB_TIMEOUT" envDefault:"10s"`

	FreshTTL time.Duration `env:"CACHE_FRESH_TTL" envDefault:"24h"`
	StaleTTL time.Duration `env:"CACHE_STALE_TTL" envDefault:"168h"`

	StoreDriver string `env:"CACHE_STORE" envDefault:"sqlite"`
	SQLitePath  string `env:"CACHE_SQLITE_PATH" envDefault:"gamedex.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the TTL pair and the store selection.
func (c Config) Validate() error {
	if c.FreshTTL <= 0 {
		return fmt.Errorf("CACHE_FRESH_TTL must be positive, got %s", c.FreshTTL)
	}
	if c.StaleTTL < c.FreshTTL {
		return fmt.Errorf("CACHE_STALE_TTL (%s) must not be shorter than CACHE_FRESH_TTL (%s)", c.StaleTTL, c.FreshTTL)
	}
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("CACHE_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown CACHE_STORE %q", c.StoreDriver)
	}
	if c.GamesDBTimeout <= 0 {
		return fmt.Errorf("GAMESDB_TIMEOUT must be positive, got %s", c.GamesDBTimeout)
	}
	return nil
}
