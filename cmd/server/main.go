// SPDX-License-Identifier: MIT

// Command server boots occam-api: it loads configuration, opens the
// catalog database and cache store, wires the configured streaming
// provider, and serves the HTTP API until asked to stop.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/api"
	"github.com/JacobDahan/occam-api/internal/cache"
	"github.com/JacobDahan/occam-api/internal/catalog"
	"github.com/JacobDahan/occam-api/internal/config"
	"github.com/JacobDahan/occam-api/internal/log"
	"github.com/JacobDahan/occam-api/internal/persistence/sqlite"
	"github.com/JacobDahan/occam-api/internal/provider"
	"github.com/JacobDahan/occam-api/internal/provider/directimdb"
	"github.com/JacobDahan/occam-api/internal/provider/proxiedid"
	"github.com/JacobDahan/occam-api/internal/provider/quota"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	maxHeaderBytes  = 1 << 20
)

func main() {
	log.Configure(log.Config{Level: os.Getenv("LOG_LEVEL")})
	logger := log.WithComponent("main")

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("occam-api exited with error")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openCatalogDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open catalog database: %w", err)
	}
	defer db.Close()

	if messages, err := sqlite.VerifyIntegrity(cfg.DatabaseURL, "quick"); err != nil {
		logger.Warn().Err(err).Msg("catalog integrity check failed to run, continuing")
	} else if len(messages) > 0 {
		logger.Warn().Strs("messages", messages).Msg("catalog database reported integrity issues")
	}

	catalogRepo := catalog.NewRepository(db)

	redisStore, err := openRedisStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	cacheInstance, writerHandle := cache.New(redisStore, log.WithComponent("cache"))
	defer func() {
		writerHandle.Shutdown()
		if err := cacheInstance.Close(); err != nil {
			logger.Warn().Err(err).Msg("cache close failed")
		}
	}()

	streamingProvider, err := buildProvider(cfg, cacheInstance, catalogRepo, redisStore)
	if err != nil {
		return fmt.Errorf("build streaming provider: %w", err)
	}

	server := api.New(streamingProvider, catalogRepo, cfg)

	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:        server.Routes(),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("occam-api listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http server shutdown error")
		}
		return nil
	}
}

func openCatalogDB(path string) (*sql.DB, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := catalog.EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openRedisStore(rawURL string) (*cache.RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return cache.NewRedisStore(cache.RedisConfig{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}, log.WithComponent("redis"))
}

func buildProvider(cfg config.Config, c *cache.Cache, catalogRepo *catalog.Repository, store cache.Store) (provider.StreamingProvider, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	switch cfg.Provider {
	case config.ProviderProxiedID:
		mapping, err := catalogRepo.NativeServiceMapping(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load native service mapping: %w", err)
		}
		mappings := make(map[int64]proxiedid.ServiceMapping, len(mapping))
		for nativeID, svc := range mapping {
			mappings[nativeID] = proxiedid.ServiceMapping{ID: svc.ID, Name: svc.Name}
		}
		return proxiedid.New(httpClient, cfg.StreamingAPIKey, cfg.StreamingAPIURL, c, log.WithComponent("proxiedid"), nil, mappings), nil
	default:
		quotaTracker := quota.NewTracker(store, log.WithComponent("quota"), cfg.MonthlyQuota)
		return directimdb.New(httpClient, cfg.StreamingAPIKey, cfg.StreamingAPIURL, c, log.WithComponent("directimdb"), quotaTracker), nil
	}
}
