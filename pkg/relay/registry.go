package relay

import (
	"sync"
)

// Registry is the process-wide map from session identifier to its active
// Session. Entries are inserted on connect and removed on terminal close;
// it is the only state shared across sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts a session under its identifier, replacing any previous
// entry with the same id.
func (r *Registry) Register(id string, s *Session) {
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
}

// Unregister removes the entry for id. A no-op when the id is absent, so a
// second call after a disconnect race is harmless.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// UnregisterIf removes the entry for id only if it still maps to s. Client
// ids can be reused: when a newer session has replaced the entry, the older
// session's teardown must not evict it.
func (r *Registry) UnregisterIf(id string, s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

// Lookup returns the session registered under id.
func (r *Registry) Lookup(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// SendTo forwards a frame to the client of the session registered under id.
// Frames for unknown ids are dropped silently: the target may have
// disconnected between lookup and send, and that race is expected.
func (r *Registry) SendTo(id string, f Frame) {
	s, err := r.Lookup(id)
	if err != nil {
		return
	}
	_ = s.Send(f)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
