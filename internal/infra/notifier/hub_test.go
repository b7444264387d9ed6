package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/notify"
	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/internal/infra/sensorfeed"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubDeliversPerSessionNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := sensorfeed.NewBroadcaster(newTestLogger())
	defer feed.Close()
	hub := NewHub(HubConfig{}, feed, newTestLogger())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, "account-1")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.Subscribers() == 1 && hub.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, feed.Publish(ctx, sensor.Reading{UVIntensity: sensor.Intensity(12), Applied: true}))

	kinds := map[notify.Kind]bool{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string              `json:"type"`
			Data notify.Notification `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, "notification", msg.Type)
		kinds[msg.Data.Kind] = true
	}
	require.True(t, kinds[notify.KindReminder])
	require.True(t, kinds[notify.KindApplied])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return feed.Subscribers() == 0 && hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := sensorfeed.NewBroadcaster(newTestLogger())
	defer feed.Close()
	hub := NewHub(HubConfig{}, feed, newTestLogger())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished

	rec := httptest.NewRecorder()
	hub.HandleWebSocket(rec, httptest.NewRequest(http.MethodGet, "/ws", nil), "a")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub(HubConfig{AllowedOrigins: []string{"https://app.example.com"}}, nil, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws", nil)
	require.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://app.example.com")
	require.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	require.False(t, hub.checkOrigin(req))
}
