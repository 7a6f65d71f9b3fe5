// Package core wires the configuration, logging, session registry, and
// edge-pull ingesters into one running process.
package core

import (
	"sync"

	"github.com/google/uuid"

	"github.com/docterling/corerelay/internal/webrtcsession"
)

// SessionRegistry holds every live WebRtcSession, keyed by ID, and
// implements webrtcsession.Manager so a Session can remove itself on
// expiry or explicit disposal.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*webrtcsession.Session
}

// NewSessionRegistry builds an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: map[uuid.UUID]*webrtcsession.Session{}}
}

// Add registers a session so ExpireAll can reach it.
func (r *SessionRegistry) Add(s *webrtcsession.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by ID.
func (r *SessionRegistry) Get(id uuid.UUID) (*webrtcsession.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports how many sessions are currently registered.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RemoveSession implements webrtcsession.Manager: it is called from
// within a Session's own dispose(), never directly.
func (r *SessionRegistry) RemoveSession(s *webrtcsession.Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	r.mu.Unlock()
}

// ExpireAll calls Expire on every registered session, disposing any that
// have gone quiet past their configured timeout.
func (r *SessionRegistry) ExpireAll() {
	r.mu.Lock()
	sessions := make([]*webrtcsession.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Expire()
	}
}
