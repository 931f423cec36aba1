package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/reelstream/internal/api/handler"
	"github.com/hszk-dev/reelstream/internal/api/middleware"
	"github.com/hszk-dev/reelstream/internal/config"
	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/infrastructure/feedsource"
	"github.com/hszk-dev/reelstream/internal/infrastructure/fetch"
	"github.com/hszk-dev/reelstream/internal/infrastructure/queue"
	"github.com/hszk-dev/reelstream/internal/infrastructure/spool"
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

	store, err := spool.NewFileStore(cfg.Player.SpoolDir)
	if err != nil {
		return fmt.Errorf("failed to prepare spool directory: %w", err)
	}

	fetcher := fetch.NewRouter().
		Handle(fetch.NewHTTPFetcher(&http.Client{}), "http", "https")

	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		fetcher.Handle(fetch.NewObjectFetcher(storageClient, storageClient.Bucket()), "s3")
		logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))
	}

	// A nil publisher disables playback events.
	var events usecase.EventPublisher
	if cfg.Player.PublishEvents {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		events = queueClient
		logger.Info("connected to RabbitMQ")
	}

	cache := usecase.NewPrefetchCache(ctx, fetcher, store, usecase.PrefetchCacheConfig{
		FetchTimeout: cfg.Player.FetchTimeout,
	})
	source := feedsource.NewClient(cfg.Feed.SourceURL, &http.Client{
		Timeout: cfg.Feed.RequestTimeout,
	})
	session := usecase.NewFeedSession(
		source,
		cache,
		events,
		usecase.NewRandomOverlayProvider(uint64(time.Now().UnixNano())),
		usecase.DefaultFeedSessionConfig(),
	)

	// The error state is user-visible; the player keeps serving it.
	if err := session.Load(ctx); err != nil {
		logger.Error("feed unavailable", slog.String("error", err.Error()))
	}
	go session.RunRefresh(ctx, cfg.Feed.RefreshInterval)

	r := setupRouter(logger, handler.NewFeedHandler(session), session)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Player.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting player", slog.Int("port", cfg.Player.Port))
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
		logger.Info("shutting down player", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Player.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Stop refreshes and in-flight retrievals before releasing payloads.
	cancel()
	cache.Wait()

	if err := session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release payloads: %w", err))
	}

	logger.Info("player stopped")
	return errors.Join(errs...)
}

func setupRouter(logger *slog.Logger, feed *handler.FeedHandler, session *usecase.FeedSession) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health(map[string]handler.HealthCheck{
		"feed": func(context.Context) error {
			if snap := session.Snapshot(); snap.State == model.FeedStateError {
				return errors.New(snap.Error)
			}
			return nil
		},
	}))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/feed", feed.Get)
		r.Post("/feed/ended", feed.Ended)
		r.Get("/videos/{id}/media", feed.Media)
	})

	return r
}
