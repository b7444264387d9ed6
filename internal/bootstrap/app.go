package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/suncare/internal/domain/monitor"
	"github.com/yanqian/suncare/internal/domain/notify"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/internal/infra/notifier"
)

// Runner is a background loop that lives as long as the app.
type Runner interface {
	Run(ctx context.Context) error
}

// Background holds the optional loops started next to the HTTP server. Nil fields are skipped.
type Background struct {
	// Feed relays readings from a shared backend into the local broadcaster.
	Feed Runner
	// Poller publishes public UV readings.
	Poller Runner
	// Session persists the last applied instant and, when enabled, delivers
	// notifications server side (log + outbox).
	Session *notify.Session
}

// App encapsulates the server and background lifecycle.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	hub        *notifier.Hub
	monitor    *monitor.Monitor
	background Background
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, hub *notifier.Hub, mon *monitor.Monitor, background Background) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		hub:        hub,
		monitor:    mon,
		background: background,
	}
}

// Run starts the HTTP server plus background work and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	a.goRun(runCtx, &wg, "hub", func(ctx context.Context) error {
		a.hub.Run(ctx)
		return nil
	})
	if a.background.Feed != nil {
		a.goRun(runCtx, &wg, "sensor feed", a.background.Feed.Run)
	}
	if a.background.Poller != nil {
		a.goRun(runCtx, &wg, "uv poller", a.background.Poller.Run)
	}

	if a.background.Session != nil {
		if err := a.background.Session.Start(); err != nil {
			a.logger.Error("server notification session failed to start", "error", err)
		} else {
			defer a.background.Session.Close()
		}
	}

	if a.cfg.Monitor.AutoStart {
		if err := a.monitor.Start(runCtx); err != nil {
			a.logger.Error("monitor auto start failed", "error", err)
		}
	}
	defer a.monitor.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		runErr = a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	cancel()
	wg.Wait()
	return runErr
}

func (a *App) goRun(ctx context.Context, wg *sync.WaitGroup, name string, run func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("background task stopped", "task", name, "error", err)
		}
	}()
}
