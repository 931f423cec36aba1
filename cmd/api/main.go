package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/reelstream/internal/api/handler"
	"github.com/hszk-dev/reelstream/internal/api/middleware"
	"github.com/hszk-dev/reelstream/internal/config"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
	"github.com/hszk-dev/reelstream/internal/infrastructure/cache"
	"github.com/hszk-dev/reelstream/internal/infrastructure/postgres"
	"github.com/hszk-dev/reelstream/internal/infrastructure/storage"
	"github.com/hszk-dev/reelstream/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	if err := postgres.EnsureSchema(ctx, pgClient.Pool()); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	checks := map[string]handler.HealthCheck{
		"postgres": pgClient.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	// Object keys are only accepted and signed when MinIO is configured.
	var objectStorage repository.ObjectStorage
	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:       cfg.MinIO.Endpoint,
			PublicEndpoint: cfg.MinIO.PublicEndpoint,
			AccessKey:      cfg.MinIO.AccessKey,
			SecretKey:      cfg.MinIO.SecretKey,
			Bucket:         cfg.MinIO.Bucket,
			UseSSL:         cfg.MinIO.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		objectStorage = storageClient
		checks["minio"] = storageClient.Ping
		logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))
	}

	videoRepo := postgres.NewVideoRepository(pgClient.Pool())
	videoSvc := usecase.NewCachedVideoService(
		usecase.NewVideoService(videoRepo, objectStorage),
		cache.NewRedisVideoListCache(redisClient),
		objectStorage,
		usecase.CachedVideoServiceConfig{
			ListTTL:   cfg.Cache.ListTTL,
			URLExpiry: cfg.Cache.URLExpiry,
		},
	)

	r := setupRouter(logger, cfg.Server, handler.NewVideoHandler(videoSvc), checks)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(
	logger *slog.Logger,
	cfg config.ServerConfig,
	videos *handler.VideoHandler,
	checks map[string]handler.HealthCheck,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))

		r.Get("/videos", videos.List)
		r.Post("/videos", videos.Create)
		r.Get("/videos/{id}", videos.Get)
	})

	return r
}
