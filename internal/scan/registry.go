package scan

import "sync"

// Conn is the subset of the websocket connection the registry manages.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Registry tracks the single active connection per operator code. A second
// connection for the same operator replaces the prior slot (last-writer-wins);
// the evicted connection is returned so the caller can close it.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Insert registers conn for the operator and returns the evicted prior
// connection, if any.
func (r *Registry) Insert(operatorCode string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prior := r.conns[operatorCode]
	r.conns[operatorCode] = conn
	return prior
}

// Evict removes the operator's slot only when it still holds conn. A stale
// reader finishing after its connection was replaced must not evict the
// replacement.
func (r *Registry) Evict(operatorCode string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[operatorCode]; ok && current == conn {
		delete(r.conns, operatorCode)
		return true
	}
	return false
}

// Lookup returns the active connection for the operator.
func (r *Registry) Lookup(operatorCode string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[operatorCode]
	return conn, ok
}

// Count returns the number of connected operators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
