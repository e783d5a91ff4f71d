package ws

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mkov/pixelwall/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades an HTTP request to a websocket connection and runs the
// protocol for its lifetime. The calling goroutine becomes the read loop.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	addr := realIP(r)
	client := hub.NewClient(addr)

	h.HandleOpen(client, addr)

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readPump dispatches inbound frames until the connection drops. A frame
// that fails to parse or dispatch never terminates the loop; only a read
// error (disconnect) does.
func (h *Handler) readPump(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.HandleClose(client)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.HandleMessage(client, raw)
	}
}

// writePump drains the client's outbound queue onto the wire, preserving
// the order events were generated for this connection.
func (h *Handler) writePump(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-client.Outbound():
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-client.Done():
			return
		}
	}
}

// realIP extracts the client's network address, preferring proxy headers
// over the socket peer. The port is stripped so one host maps to one
// rate-limit key regardless of ephemeral ports.
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
