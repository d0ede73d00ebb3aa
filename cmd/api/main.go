package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cardguard/cardguard-backend/internal/api/rest"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/cache"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/database"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/reference"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/repository"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/telemetry"
	"github.com/cardguard/cardguard-backend/internal/metrics"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	slog.SetDefault(logger)

	if cfg.Security.JWTSecret == "" {
		logger.Error("CARDGUARD_SECURITY__JWT_SECRET must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitializeOpenTelemetry(ctx, &telemetry.Config{
		ServiceName:    "cardguard-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.EnableTracing,
		SamplingRate:   cfg.Telemetry.SampleRate,
		ExportTimeout:  30 * time.Second,
		BatchTimeout:   5 * time.Second,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// Infrastructure layers log through zap; request-path code uses slog.
	infraLogger, err := newInfraLogger(cfg.Environment)
	if err != nil {
		logger.Error("failed to set up infrastructure logger", "error", err)
		os.Exit(1)
	}
	defer infraLogger.Sync()

	pool, err := database.NewConnectionPool(&cfg.Database, infraLogger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var repo scoring.Repository = repository.NewAnalysisRepository(pool.Pool())

	// Redis is optional: without it the API runs uncached and unthrottled.
	var limiter cache.RateLimiter
	if cfg.Redis.URL != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		store := cache.NewRedisCacheFromClient(client, infraLogger)
		repo = cache.NewAnalysisCache(repo, store, infraLogger, cfg.Scoring.CacheTTL)
		limiter = cache.NewRedisRateLimiter(client, infraLogger)
		defer client.Close()
	} else {
		logger.Warn("redis url not configured, running without cache or rate limiting")
	}

	var registry *metrics.Registry
	if cfg.Telemetry.EnableMetrics {
		registry, err = metrics.NewRegistry("cardguard-api")
		if err != nil {
			logger.Error("failed to create metrics registry", "error", err)
			os.Exit(1)
		}
		registry.SetDBPoolSize(int64(cfg.Database.MaxOpenConns))

		metricsSrv := startMetricsServer(cfg.Telemetry.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	service := scoring.NewService(repo, logger)
	handler := rest.NewHandler(service, reference.NewProvider(), registry, logger)
	auth := rest.NewAuthMiddleware(&cfg.Security)
	server := rest.NewServer(cfg, handler, auth, limiter, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := server.Shutdown(); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func newInfraLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
