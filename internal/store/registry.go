package store

import "sync"

// Registry maps session identifiers to their stores. Stores are
// created lazily on first access and live for the process lifetime;
// nothing is ever evicted.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*ServiceStore
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*ServiceStore)}
}

// Store returns the store for sessionID, creating it on first access.
func (r *Registry) Store(sessionID string) *ServiceStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	if !ok {
		s = New()
		r.stores[sessionID] = s
	}
	return s
}

// Reset reinitializes the session's store in place. Existing
// references stay valid and observe the cleared contents, so no holder
// needs a new lookup.
func (r *Registry) Reset(sessionID string) *ServiceStore {
	s := r.Store(sessionID)
	s.Reset()
	return s
}
