package relay

import (
	"errors"
	"sync"

	"github.com/acp-protocol/bridge/internal/metrics"
)

// ErrRegistryFull is returned by Register once the session cap is reached.
var ErrRegistryFull = errors.New("session registry is full")

// Registry tracks currently open sessions in registration order. All methods
// are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	max      int // 0 = unlimited
	sessions []*Session
}

// NewRegistry creates a registry holding at most max sessions (0 for no
// bound).
func NewRegistry(max int) *Registry {
	return &Registry{max: max}
}

// Register adds a session. Returns ErrRegistryFull past the cap.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		return ErrRegistryFull
	}
	r.sessions = append(r.sessions, s)
	metrics.RelaySessionsActive.Inc()
	return nil
}

// Unregister removes a session. Idempotent; a no-op if the session is not
// registered.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, registered := range r.sessions {
		if registered == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			metrics.RelaySessionsActive.Dec()
			return
		}
	}
}

// ForEach calls fn for every registered session in registration order. It
// iterates a snapshot, so fn may unregister sessions without corrupting the
// walk.
func (r *Registry) ForEach(fn func(*Session)) {
	r.mu.RLock()
	snapshot := make([]*Session, len(r.sessions))
	copy(snapshot, r.sessions)
	r.mu.RUnlock()

	for _, s := range snapshot {
		fn(s)
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
