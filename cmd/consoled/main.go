// Command consoled starts the account console web server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/darshan87986/your-account-space/internal/authstate"
	"github.com/darshan87986/your-account-space/internal/config"
	"github.com/darshan87986/your-account-space/internal/migrate"
	"github.com/darshan87986/your-account-space/internal/provider"
	"github.com/darshan87986/your-account-space/internal/repository/postgres"
	"github.com/darshan87986/your-account-space/internal/web"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, starts the session store,
// and serves the console until a shutdown signal arrives.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	profileRepo := postgres.NewProfileRepo(db)

	client := provider.NewHTTP(provider.Config{
		URL:     cfg.PlatformURL,
		AnonKey: cfg.PlatformAnonKey,
	}, logger)
	defer client.Close()

	toasts := &web.Toasts{}
	store := authstate.New(client, profileRepo, toasts, logger, authstate.Config{})
	store.Start(ctx)
	defer store.Close()

	handlers, err := web.NewHandlers(store, profileRepo, toasts, logger, cfg.ExternalURL)
	if err != nil {
		logger.Fatal("web.NewHandlers", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.NewRouter(handlers, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
