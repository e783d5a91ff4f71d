package session

import (
	"sync"

	"github.com/mkov/pixelwall/internal/hub"
)

// Session is the ephemeral per-connection record, distinct from the durable
// account. Identity fields are empty until a successful login; a session
// never transitions back to anonymous except by disconnecting.
type Session struct {
	Addr        string
	Username    string
	Fingerprint string
}

// Identified reports whether the session has logged in
func (s *Session) Identified() bool {
	return s.Username != ""
}

// Registry maps live hub clients to their sessions. Sessions are created on
// connect and destroyed on disconnect; they are never persisted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*hub.Client]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[*hub.Client]*Session),
	}
}

// Register creates a session for a newly opened connection
func (r *Registry) Register(client *hub.Client, addr string) *Session {
	sess := &Session{Addr: addr}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[client] = sess
	return sess
}

// Identify attaches a logged-in identity to the session
func (r *Registry) Identify(client *hub.Client, username, fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[client]; ok {
		sess.Username = username
		sess.Fingerprint = fingerprint
	}
}

// Unregister destroys the session on disconnect
func (r *Registry) Unregister(client *hub.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, client)
}

// Lookup returns the session for a connection, if any
func (r *Registry) Lookup(client *hub.Client) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[client]
	return sess, ok
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
