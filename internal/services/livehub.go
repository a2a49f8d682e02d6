package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gateway-console/internal/gateway"
	"gateway-console/internal/logger"
	"gateway-console/internal/usage"

	"github.com/gorilla/websocket"
)

// UsageHub manages WebSocket connections from open dashboard pages and
// pushes a freshly reconciled usage series to them on an interval, so the
// chart tracks new activity without a reload.
type UsageHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	backend *gateway.Client
	refresh time.Duration
}

func NewUsageHub(backend *gateway.Client, refresh time.Duration) *UsageHub {
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	return &UsageHub{
		clients: make(map[*websocket.Conn]bool),
		backend: backend,
		refresh: refresh,
	}
}

// Run broadcasts on the refresh interval until the context is cancelled.
func (h *UsageHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.clientCount() == 0 {
				continue
			}
			h.broadcast(ctx)
		}
	}
}

// Register adds a new WebSocket connection and sends the initial series.
func (h *UsageHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	h.sendSeriesTo(conn)

	// Keep the connection alive by reading (and discarding) client
	// messages; a read error means the page went away.
	go func() {
		defer h.unregister(conn)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			return nil
		})
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, exists := h.clients[conn]
			h.mu.RUnlock()
			if !exists {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}()
}

func (h *UsageHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *UsageHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *UsageHub) broadcast(ctx context.Context) {
	payload := h.buildPayload(ctx)
	if payload == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Sugar.Debugw("dashboard socket write failed, removing client", "err", err)
			go h.unregister(conn)
		}
	}
}

func (h *UsageHub) sendSeriesTo(conn *websocket.Conn) {
	payload := h.buildPayload(context.Background())
	if payload == nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, payload)
}

// UsagePayload is the JSON structure pushed to dashboard pages.
type UsagePayload struct {
	Type   string         `json:"type"`
	Series []usage.Sample `json:"series"`
}

func (h *UsageHub) buildPayload(ctx context.Context) []byte {
	start, end := usage.DefaultRange(time.Now())

	samples, err := h.backend.DailyUsage(ctx, start, end)
	if err != nil {
		logger.Sugar.Debugw("failed to refresh usage series", "err", err)
		return nil
	}

	payload := UsagePayload{
		Type:   "usage_update",
		Series: usage.Reconcile(start, end, samples),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorw("failed to marshal usage payload", "err", err)
		return nil
	}
	return data
}
