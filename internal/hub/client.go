package hub

import "time"

// sendBufferSize bounds each client's outbound queue. A client that cannot
// drain this many messages has messages dropped rather than blocking the hub.
const sendBufferSize = 256

// Client is one live connection's outbound endpoint: a buffered FIFO queue
// drained by the connection's write loop. The queue channel is never closed;
// the done channel signals the write loop to exit.
type Client struct {
	addr        string
	send        chan []byte
	done        chan struct{}
	connectedAt time.Time
}

// NewClient creates a client for a connection from the given network address
func NewClient(addr string) *Client {
	return &Client{
		addr:        addr,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// Addr returns the network address the connection arrived from
func (c *Client) Addr() string {
	return c.addr
}

// Outbound is the queue the connection's write loop drains. Message order
// matches the order events were queued for this client.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// Done is closed when the client is unregistered
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// TrySend queues a message without blocking. It reports false for clients
// that are already closed or whose buffer is full; delivery is best effort.
func (c *Client) TrySend(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
