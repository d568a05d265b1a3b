package relay

import "sync"

// Registry is the synchronized, insertion-ordered collection of live
// sessions. Order reflects connection order; usernames may repeat, session
// IDs never do.
type Registry struct {
	mu       sync.RWMutex
	sessions []*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Insert appends the session. The ID was fixed by the caller; inserting a
// duplicate ID is a no-op to keep the one-entry-per-ID invariant.
func (r *Registry) Insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.id == s.id {
			return
		}
	}
	r.sessions = append(r.sessions, s)
}

// Remove deletes the session with the given ID and returns it. Returns nil
// if no such session is registered.
func (r *Registry) Remove(id int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sessions {
		if s.id == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return s
		}
	}
	return nil
}

// RemoveSession deletes a specific session instance, typically one located
// during a snapshot iteration, and reports whether it was still registered.
func (r *Registry) RemoveSession(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sessions {
		if existing == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a point-in-time copy of the sessions in registration
// order, so delivery and eviction never race with concurrent inserts.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make([]*Session, len(r.sessions))
	copy(snapshot, r.sessions)
	return snapshot
}

// FindLast scans the registration order in reverse and returns the first
// session with the given username. Among duplicate usernames the most
// recently connected session wins.
func (r *Registry) FindLast(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.sessions) - 1; i >= 0; i-- {
		if r.sessions[i].username == username {
			return r.sessions[i], true
		}
	}
	return nil, false
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
