package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/wanderplan/internal/api"
	"github.com/neexbeast/wanderplan/internal/cache"
	"github.com/neexbeast/wanderplan/internal/config"
	"github.com/neexbeast/wanderplan/internal/itinerary"
	"github.com/neexbeast/wanderplan/internal/logging"
	"github.com/neexbeast/wanderplan/internal/scoring"
	"github.com/neexbeast/wanderplan/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("loading .env", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, storage.PoolSettings{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, cache.Options{
		URL:         cfg.Redis.URL,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	breaker := storage.NewBreakerQuerier(pool, storage.BreakerSettings{
		Name:             "postgres",
		MaxRequests:      cfg.Database.Breaker.MaxRequests,
		Interval:         cfg.Database.Breaker.Interval,
		Timeout:          cfg.Database.Breaker.Timeout,
		FailureThreshold: cfg.Database.Breaker.FailureThreshold,
	}, log)
	repo := storage.NewRepositoryWithQuerier(breaker)
	cacheLayer := cache.NewCache(redisClient, cfg.Redis.CacheTTL)

	builder := itinerary.NewBuilder(repo, itinerary.Settings{
		DefaultPoisPerDay: cfg.Planner.DefaultPoisPerDay,
		MaxNumDays:        cfg.Planner.MaxNumDays,
		MaxPoisPerDay:     cfg.Planner.MaxPoisPerDay,
	}, log)
	scorer := scoring.NewService(repo, cfg.Scoring.DefaultLimit, cfg.Scoring.SampleAttractions, log)
	handlers := api.NewHandlers(builder, scorer, repo, cacheLayer, log)

	if cfg.Auth.BearerToken == "" {
		log.Warn("BEARER_TOKEN not set, data routes are unauthenticated")
	}

	router := api.NewRouter(handlers, api.RouterOptions{
		BearerToken:       cfg.Auth.BearerToken,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, api.HealthChecks{
		DB:      pool,
		Redis:   &redisPingerAdapter{client: redisClient},
		Breaker: breaker,
	}, log)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the health check's pinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
