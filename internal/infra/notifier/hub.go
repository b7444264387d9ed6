package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yanqian/suncare/internal/domain/notify"
	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/pkg/metrics"
)

// MaxClients is the maximum number of concurrent websocket sessions.
const MaxClients = 1000

var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

// ErrSlowClient is returned when a client's send buffer is full or closed.
var ErrSlowClient = errors.New("websocket client not accepting messages")

// HubConfig controls per-session gates and origin checks.
type HubConfig struct {
	UVThreshold    int
	AllowedOrigins []string
}

// Message is the envelope written to websocket clients.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Hub owns websocket notification sessions. Each connection gets its own
// gate subscribed to the sensor feed, so dedup state is per client. Client
// gates never persist the last applied instant; the server session does.
type Hub struct {
	cfg      HubConfig
	feed     sensor.Feed
	logger   *slog.Logger
	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub constructs a hub. Call Run before serving connections.
func NewHub(cfg HubConfig, feed sensor.Feed, logger *slog.Logger) *Hub {
	h := &Hub{
		cfg:        cfg,
		feed:       feed,
		logger:     logger.With("component", "notifier.hub"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	host := r.Host
	return origin == "http://"+host || origin == "https://"+host
}

// Run manages registrations until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("notification hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.session.Close()
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.ActiveSessions.Set(0)
			h.logger.Info("notification hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveSessions.Set(float64(n))
			h.logger.Info("session connected", "account_id", client.accountID, "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.session.Close()
				client.closeSend()
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveSessions.Set(float64(n))
			h.logger.Info("session disconnected", "account_id", client.accountID, "total", n)
		}
	}
}

// Sessions reports the number of connected clients.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and starts a notification session for accountID.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, accountID string) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	if h.Sessions() >= MaxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		accountID: accountID,
		send:      make(chan []byte, 64),
	}
	gate := notify.NewGate(h.cfg.UVThreshold, client, nil, h.logger.With("account_id", accountID))
	client.session = notify.NewSession(h.feed, gate)

	// subscribe before the hub can see the client, so a shutdown or unregister
	// always finds the subscription to remove
	if err := client.session.Start(); err != nil {
		h.logger.Error("failed to subscribe session", "account_id", accountID, "error", err)
		_ = conn.Close()
		return
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.session.Close()
		client.closeSend()
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Client is one websocket connection with its own notification session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	accountID string
	session   *notify.Session

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Notify implements notify.Notifier by queueing the notification for the write pump.
func (c *Client) Notify(_ context.Context, note notify.Notification) error {
	payload, err := json.Marshal(Message{Type: "notification", Timestamp: note.FiredAt, Data: note})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSlowClient
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSlowClient
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump only tracks liveness; clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ notify.Notifier = (*Client)(nil)
