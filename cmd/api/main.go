// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/lborges/gamedex/internal/cache"
	"github.com/lborges/gamedex/internal/config"
	"github.com/lborges/gamedex/internal/gamesdb"
	"github.com/lborges/gamedex/internal/http/routes"
	"github.com/lborges/gamedex/internal/storage/memory"
	"github.com/lborges/gamedex/internal/storage/postgres"
	"github.com/lborges/gamedex/internal/storage/redis"
	"github.com/lborges/gamedex/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Printf("starting gamedex on :%s (store=%s)", cfg.Port, cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Row store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer closeStore()

	// Upstream client
	client := gamesdb.New(cfg.GamesDBAPIKey,
		gamesdb.WithBaseURL(cfg.GamesDBBaseURL),
		gamesdb.WithTimeout(cfg.GamesDBTimeout),
	)
	if !client.Configured() {
		logger.Warn().Msg("GAMESDB_API_KEY not set, games endpoint will answer 503")
	}

	// Cache
	c := cache.New(cache.Options{
		Store:    store,
		Fetcher:  client,
		Runtime:  cache.NewRuntime(),
		FreshTTL: cfg.FreshTTL,
		StaleTTL: cfg.StaleTTL,
		Logger:   logger,
	})

	// Router / server
	s := routes.New(routes.ServerOptions{
		Cache:              c,
		UpstreamConfigured: client.Configured(),
		Logger:             logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: h}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown did not complete cleanly")
	}
}

func openStore(ctx context.Context, cfg config.Config) (cache.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), func() {}, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreRedis:
		s, err := redis.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		// Validate rejects anything else.
		return memory.New(), func() {}, nil
	}
}
