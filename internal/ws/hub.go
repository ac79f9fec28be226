// Package ws pushes loyalty notifications (points changes, voucher issue and
// consumption, case resolutions) to connected clients. Delivery is
// fire-and-forget: a slow or dead client never blocks the store transaction
// that produced the notification.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Notification is a real-time event broadcast to connected clients.
type Notification struct {
	Kind      string         `json:"kind"`
	AccountID int64          `json:"account_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notification kinds.
const (
	KindPointsChanged   = "points_changed"
	KindVoucherIssued   = "voucher_issued"
	KindVoucherConsumed = "voucher_consumed"
	KindCheckinVerified = "checkin_verified"
	KindCaseResolved    = "case_resolved"
)

// Hub maintains the set of active WebSocket clients and broadcasts
// notifications to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "client_id", c.id, "total", total)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a notification to all connected clients. Clients whose
// send buffer is full are skipped.
func (h *Hub) Broadcast(n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("marshal notification", "kind", n.Kind, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
