package gateway

import (
	"log/slog"
	"sync"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
)

// Registry maps user ids to their live connections. It is the only state
// shared between the socket side and the bus side of the gateway, and is
// mutated exclusively through Register and Unregister.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[*Connection]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[*Connection]struct{})}
}

// Register adds a connection under its user id.
func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID]
	if !ok {
		set = make(map[*Connection]struct{})
		r.conns[c.UserID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a connection. It reports whether this removed the
// user's final connection; empty sets are pruned so a user key exists only
// while at least one connection is live. Idempotent.
func (r *Registry) Unregister(c *Connection) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, c.UserID)
		return true
	}
	return false
}

// Sockets returns a snapshot of the user's connections, possibly empty.
func (r *Registry) Sockets(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Connections returns a snapshot of every registered connection.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Connection
	for _, set := range r.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast serializes the frame once and delivers it to every live
// connection of the user. Delivery is best effort with per-socket
// isolation: a closed sibling is skipped and logged, never retried, and
// never blocks the rest.
func (r *Registry) Broadcast(userID string, frame *protocol.Frame) {
	data, err := frame.Serialize()
	if err != nil {
		slog.Error("frame serialization failed, broadcast dropped", "userID", userID, "error", err)
		return
	}

	for _, c := range r.Sockets(userID) {
		if c.closed() {
			slog.Debug("skipping broadcast to closed connection", "userID", userID, "connID", c.ID)
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.Warn("send buffer full, dropping broadcast", "userID", userID, "connID", c.ID)
		}
	}
}
