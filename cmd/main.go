package main

import (
	"aniverse/api"
	"aniverse/catalog"
	"aniverse/config"
	"aniverse/favorites"
	"aniverse/logging"
	"aniverse/scheduler"
	"aniverse/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Application failed", zap.Error(err))
	}
	logger.Info("Application exiting")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Aniverse favorites service",
		zap.String("run_mode", cfg.RunMode),
		zap.String("backend", cfg.Storage.Backend))

	ctx := context.Background()

	kv, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	store, err := favorites.Open(ctx, kv, favorites.Options{
		Key:    cfg.FavoritesKey,
		Strict: cfg.Strict,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open favorites: %w", err)
	}
	displayDatabaseStats(ctx, logger, kv)

	source, err := newCatalogSource(cfg)
	if err != nil {
		return err
	}

	if cfg.RunMode == "once" {
		if source == nil {
			return errors.New("RUN_MODE=once needs CATALOG_URL")
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		if err := scheduler.NewRefreshJob(source, store, logger).Run(ctx); err != nil {
			return err
		}
		displayFavoritesStats(logger, store)
		return nil
	}

	return serve(cfg, logger, store, source)
}

func serve(cfg *config.Config, logger *zap.Logger, store *favorites.Store, source catalog.Source) error {
	sched := scheduler.NewScheduler(logger)
	if source != nil {
		if err := sched.AddJob(cfg.RefreshSpec, scheduler.NewRefreshJob(source, store, logger)); err != nil {
			return fmt.Errorf("failed to schedule favorites refresh: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	} else {
		logger.Info("Favorites refresh disabled: CATALOG_URL is not set")
	}

	displayFavoritesStats(logger, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(store, source, logger).Router(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Graceful shutdown failed", zap.Error(err))
		_ = srv.Close()
	}
	logger.Info("Server stopped")
	return nil
}

// newCatalogSource returns nil when no catalog is configured
func newCatalogSource(cfg *config.Config) (catalog.Source, error) {
	if cfg.CatalogURL == "" {
		return nil, nil
	}
	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: cfg.CatalogURL,
		Token:   cfg.CatalogToken,
		Timeout: cfg.CatalogTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// displayDatabaseStats logs what the backend holds when it can report it
func displayDatabaseStats(ctx context.Context, logger *zap.Logger, kv storage.KeyValueStore) {
	sp, ok := storage.StatsOf(kv)
	if !ok {
		return
	}

	stats, err := sp.GetStats()
	if err != nil {
		logger.Warn("Failed to get database stats", zap.Error(err))
		return
	}
	keys, err := sp.Keys(ctx)
	if err != nil {
		logger.Warn("Failed to list stored keys", zap.Error(err))
		return
	}

	logger.Info("Database stats",
		zap.Int("keys", stats["keys"]),
		zap.Int("bytes", stats["bytes"]),
		zap.Strings("profiles", keys))
}

// displayFavoritesStats logs a short summary of the list
func displayFavoritesStats(logger *zap.Logger, store *favorites.Store) {
	if err := store.LoadErr(); err != nil {
		logger.Warn("Favorites started empty", zap.Error(err))
	}

	list := store.List()
	logger.Info("Favorites",
		zap.String("key", store.Key()),
		zap.Int("count", len(list)),
		zap.Int("genres", len(catalog.Genres(list))))

	for _, t := range catalog.TopRated(list, 5) {
		logger.Info("Top favorite",
			zap.String("id", t.ID),
			zap.String("title", t.Title),
			zap.Float64("ranking", t.Ranking.Value))
	}
}
