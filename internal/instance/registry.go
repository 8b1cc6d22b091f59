package instance

import (
	"strings"
	"sync"
)

// Conn is the view of a live gateway connection the registry tracks.
// The concrete type is owned by the host gateway; this layer only reads it.
type Conn interface {
	ID() string
	IsConnected() bool
}

// Registry holds the in-process set of managed gateway connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register adds or replaces a connection by its ID.
func (r *Registry) Register(conn Conn) {
	if r == nil || conn == nil {
		return
	}
	id := strings.TrimSpace(conn.ID())
	if id == "" {
		return
	}
	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()
}

// Remove drops a connection by ID. Unknown IDs are ignored.
func (r *Registry) Remove(id string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.conns, strings.TrimSpace(id))
	r.mu.Unlock()
}

// Snapshot returns the current connections as a copied slice.
func (r *Registry) Snapshot() []Conn {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
