package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/handlers"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/placestore"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	// Google allows 50 requests per second per project, shared by all workers.
	googleRateLimit = 50
)

func runServe(cmd *cobra.Command, _ []string) error {
	// Cancelled on SIGINT/SIGTERM for graceful shutdown.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	// Private registry with the Go and process collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(ctx,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer dtb.Close()

	repo := repository.NewRepository(dtb, logger)
	if err = repo.EnsureSchema(ctx); err != nil {
		return err
	}

	places, closePlaces, err := openPlaces(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closePlaces(context.WithoutCancel(ctx)); cerr != nil {
			logger.ErrorContext(ctx, "Failed to close place store", "error", cerr)
		}
	}()

	geoProvider, err := newProvider(ctx, cfg, appMetrics, logger)
	if err != nil {
		return err
	}

	placeService := service.NewPlaceService(
		logger, repo, places, geoProvider, appMetrics, cfg.ParallelThreshold, cfg.Workers,
	)

	if geoProvider != nil {
		geoService := service.NewGeocodingService(
			logger,
			places,
			geoProvider,
			cfg.ProviderType, // Provider name for metrics
			appMetrics,
			cfg.Workers,
			cfg.Interval,
		)
		go geoService.Run(ctx)
	}

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handlers.NewRouter(placeService, dtb, reg, appMetrics, logger),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
		if serr := server.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			serverErr <- serr
		}
		close(serverErr)
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	case err = <-serverErr:
		logger.ErrorContext(ctx, "HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.ErrorContext(ctx, "HTTP server shutdown failed", "error", serr)
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")

	return err
}

func openPlaces(ctx context.Context, cfg *config.Config, logger *slog.Logger) (placestore.Store, placestore.CloseFunc, error) {
	store, closeFn, err := placestore.NewStore(ctx, placestore.Config{
		Type:            placestore.BackendType(cfg.Places.Backend),
		MongoURI:        cfg.Places.MongoURI,
		MongoDatabase:   cfg.Places.MongoDatabase,
		MongoCollection: cfg.Places.MongoCollection,
		ElasticURL:      cfg.Places.ElasticURL,
		ElasticIndex:    cfg.Places.ElasticIndex,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open place store: %w", err)
	}

	logger.InfoContext(ctx, "Place store initialized", "backend", cfg.Places.Backend)

	return store, closeFn, nil
}

// newProvider builds the configured geocoding provider, wrapped in the Redis
// cache when REDIS_ADDR is set. It returns nil when geocoding is disabled.
func newProvider(
	ctx context.Context,
	cfg *config.Config,
	appMetrics *metrics.Metrics,
	logger *slog.Logger,
) (geocoding.Provider, error) {
	providerConfig := geocoding.ProviderConfig{
		Type:     geocoding.ProviderType(cfg.ProviderType),
		APIKey:   cfg.APIKey,
		Language: cfg.Language,
		Logger:   logger,
	}
	if providerConfig.Type == geocoding.ProviderTypeGoogle {
		providerConfig.RateLimit = max(googleRateLimit/max(cfg.Workers, 1), 1)
	}

	provider, err := geocoding.NewProvider(providerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	if provider == nil {
		logger.InfoContext(ctx, "Geocoding disabled")
		return nil, nil
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	if cfg.Redis.Addr == "" {
		return provider, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err = rdb.Ping(ctx).Err(); err != nil {
		logger.WarnContext(ctx, "Redis unreachable, geocoding cache disabled", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return provider, nil
	}

	logger.InfoContext(ctx, "Geocoding cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)

	return geocoding.NewCachedProvider(provider, rdb, cfg.Redis.TTL, appMetrics, logger), nil
}
