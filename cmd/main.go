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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/loganlanou/snapgram/internal/middleware"
	"github.com/loganlanou/snapgram/internal/recommender"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/service"
)

func main() {
	// slog is configured in slog.go via init()

	config, err := service.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(config); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(config *service.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeProvider, err := newProvider(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to initialize %s provider: %w", config.Provider, err)
	}
	defer closeProvider()

	store, closeStore, err := newSessionStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeStore()

	sessions := session.NewManager(config.Session.Secret, store, config.IsProduction())
	rec := recommender.NewClient(config.Recommender.URL, config.Recommender.Timeout)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.SecurityHeaders())

	svc := service.New(client, sessions, rec, config)
	svc.RegisterRoutes(e)

	addr := fmt.Sprintf(":%s", config.Port)
	slog.Info("🚀 Snapgram starting",
		"url", config.BaseURL,
		"port", config.Port,
		"environment", config.Environment,
		"provider", config.Provider,
		"session_store", config.Session.Store,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
