// Package hub fans state-changing events out to every live connection.
// Registration and broadcast run synchronously on the calling goroutine
// under the hub's lock, so a message enqueued after another by the same
// goroutine lands in every client's send queue in that order. Delivery
// is best effort with no retry and no queue beyond each client's buffer.
package hub

import (
	"log/slog"
	"sync"
	"time"
)

// Hub manages the set of live clients
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a hub
func New(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger.With(slog.String("component", "hub")),
		done:    make(chan struct{}),
	}
}

// Register adds a client to the hub. No-op after Close.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return
	default:
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered",
		slog.String("addr", client.addr),
		slog.Int("total_clients", total))
}

// Unregister removes a client and signals its write loop to exit
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		client.close()
		h.logger.Info("client unregistered",
			slog.String("addr", client.addr),
			slog.Duration("connection_duration", time.Since(client.connectedAt)),
			slog.Int("total_clients", total))
	}
}

// Broadcast enqueues a message to every live client before returning, so
// anything the caller sends afterwards lands behind it in each client's
// queue. Clients with full buffers miss the message (best effort, logged).
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	dropped := 0
	for client := range h.clients {
		if !client.TrySend(message) {
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 {
		h.logger.Warn("broadcast partially dropped",
			slog.Int("dropped", dropped))
	}
}

// Close disconnects all clients and rejects further registrations. Safe
// to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		close(h.done)
		for client := range h.clients {
			client.close()
			delete(h.clients, client)
		}
		h.mu.Unlock()
		h.logger.Info("hub stopped")
	})
}

// ClientCount returns the number of live clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
