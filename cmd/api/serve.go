package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stowage/service/internal/auth"
	"github.com/stowage/service/internal/cache"
	"github.com/stowage/service/internal/config"
	"github.com/stowage/service/internal/db"
	"github.com/stowage/service/internal/file"
	"github.com/stowage/service/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.SetupLogger(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, closeDB, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	store, err := storage.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Store.Type, err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	c, err := cache.New(ctx, cfg.CacheURL, cfg.CacheTTL, cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer c.Close()

	// Wire dependencies: repository → service → handler
	fileSvc := file.NewService(repo, store, c, logger, file.Options{
		StoreType:   cfg.Store.Type,
		MaxAttempts: cfg.UploadMaxAttempts,
		BatchMode:   cfg.UploadBatchMode,
	})
	fileHandler := file.NewHandler(fileSvc, file.Limits{
		File:    int64(cfg.FileSizeLimit),
		Request: int64(cfg.RequestSizeLimit),
	}, logger)

	authSvc := auth.NewService(cfg.APIKey, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(cfg, logger, fileSvc, fileHandler, authSvc, authHandler),
		ReadTimeout: 5 * time.Minute,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.AppEnv),
			slog.String("store", cfg.Store.Type),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openRepository connects to the configured database, applies migrations and
// returns the matching repository. The caller must call the returned close func.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (file.Repository, func(), error) {
	if db.Driver(cfg.DatabaseURL) == db.DriverSQLite {
		sqlDB, err := db.OpenSQLite(db.SQLitePath(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.MigrateSQLite(sqlDB, logger); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("database migration failed: %w", err)
		}
		return file.NewSQLiteRepository(sqlDB), func() { sqlDB.Close() }, nil
	}

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		return nil, nil, fmt.Errorf("database migration failed: %w", err)
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return file.NewPostgresRepository(pool), pool.Close, nil
}
