//go:build integration

package sensorfeed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcvalkey "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

func newValkeyClient(t *testing.T) valkey.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcvalkey.Run(ctx, "valkey/valkey:7.2.5")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	addr, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValkeyFeedLatestRoundTrip(t *testing.T) {
	ctx := context.Background()
	feed := NewValkeyFeed(newValkeyClient(t), "test:sensor", newTestBroadcaster(t), newTestLogger())

	_, ok, err := feed.Latest(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	applied := time.Date(2025, 9, 20, 8, 30, 0, 0, time.UTC)
	require.NoError(t, feed.Publish(ctx, sensor.Reading{
		UVIntensity: sensor.Intensity(88),
		Applied:     true,
		AppliedAt:   &applied,
		Source:      "serial",
	}))

	got, ok, err := feed.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 88, *got.UVIntensity)
	require.True(t, got.Applied)
	require.True(t, applied.Equal(*got.AppliedAt))
	require.Equal(t, "serial", got.Source)
	require.False(t, got.ReceivedAt.IsZero())
}

func TestValkeyFeedRelaysBetweenProcesses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := newValkeyClient(t)

	writer := NewValkeyFeed(client, "test:sensor", newTestBroadcaster(t), newTestLogger())
	require.NoError(t, writer.Publish(ctx, sensor.Reading{UVIntensity: sensor.Intensity(5)}))

	reader := NewValkeyFeed(client, "test:sensor", newTestBroadcaster(t), newTestLogger())
	rec := newRecorder()
	_, err := reader.Subscribe(rec.handle)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- reader.Run(ctx) }()

	// Run seeds the relay from the stored record before subscribing
	seeded := rec.wait(t, 1)
	require.Equal(t, 5, *seeded[0].UVIntensity)

	// the channel subscription is asynchronous, so publish until one arrives
	require.Eventually(t, func() bool {
		if err := writer.Publish(ctx, sensor.Reading{UVIntensity: sensor.Intensity(120)}); err != nil {
			return false
		}
		latest, ok, err := reader.local.Latest(ctx)
		return err == nil && ok && latest.UVIntensity != nil && *latest.UVIntensity == 120
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}
