package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/monitor"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/internal/infra/notifier"
	"github.com/yanqian/suncare/internal/infra/profilerepo"
	"github.com/yanqian/suncare/internal/infra/sensorfeed"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestAppRunLifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		HTTP:    config.HTTPConfig{Address: "127.0.0.1:0"},
		Monitor: config.MonitorConfig{AutoStart: true},
	}
	feed := sensorfeed.NewBroadcaster(logger)
	defer feed.Close()
	store := profilerepo.NewMemoryRepository()
	mon := monitor.New(monitor.Config{}, store, feed, logger)
	hub := notifier.NewHub(notifier.HubConfig{UVThreshold: 10}, feed, logger)
	poller := &countingRunner{}

	app := NewApp(cfg, logger, &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}, hub, mon, Background{Poller: poller})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mon.State() == monitor.StateListening && poller.runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.Equal(t, monitor.StateStopped, mon.State())
	require.Zero(t, feed.Subscribers())
}
