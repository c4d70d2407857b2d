// Package session implements the thread-safe session registry (spec.md
// §4.2): a map of every session seen this process's lifetime plus a single
// "current session" slot that handlers query without coupling to the
// collector that populates it.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

// Registry is the only shared mutable object in this module besides the
// event bus; it is constructed once and passed explicitly to collaborators
// rather than held as a package-level singleton (design note §9).
type Registry struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]telemetry.Session
	current uuid.UUID
	active  bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[uuid.UUID]telemetry.Session)}
}

// StartSession installs s as the current session. If another session is
// already active, it logs a warning and replaces the current slot — the
// active-session concept is single-valued, but the replaced session
// remains queryable by id via GetSession.
func (r *Registry) StartSession(s telemetry.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		monitoring.Logf("session: starting %s while %s is still active; replacing current session", s.SessionID, r.current)
	}
	r.byID[s.SessionID] = s
	r.current = s.SessionID
	r.active = true
}

// EndSession clears the current slot if id matches it. Ending a session
// whose id does not match the current slot is a no-op with a warning — the
// historical record in byID is left untouched either way.
func (r *Registry) EndSession(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.current != id {
		monitoring.Logf("session: end_session(%s) does not match current session %s; ignoring", id, r.current)
		return
	}
	r.active = false
	r.current = uuid.Nil
}

// GetCurrentSession returns the active session, or false if none is active.
func (r *Registry) GetCurrentSession() (telemetry.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.active {
		return telemetry.Session{}, false
	}
	s, ok := r.byID[r.current]
	return s, ok
}

// GetSession looks up any session seen this process's lifetime by id,
// active or historical.
func (r *Registry) GetSession(id uuid.UUID) (telemetry.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// HasActiveSession reports whether a session is currently active.
func (r *Registry) HasActiveSession() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}
