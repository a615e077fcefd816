package store

import (
	"errors"
	"sync"
	"time"

	"github.com/vetbox/vetbox/internal/domain"
)

var ErrNotFound = errors.New("not found")

// SessionStore keeps live conversation sessions in process memory, keyed by
// session id. Sessions are exclusively owned state: the map lock only guards
// lookup and insertion, while per-turn serialization is done by locking the
// session itself.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.Session)}
}

// Get returns the session for id, if present.
func (s *SessionStore) Get(id string) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// GetOrCreate returns the session for id, creating a fresh one if the id
// has never been seen. Session identity is advisory, so an unknown id is
// an implicit INIT, not an error.
func (s *SessionStore) GetOrCreate(id string) *domain.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = domain.NewSession(id)
	s.sessions[id] = sess
	return sess
}

// Delete removes the session for id.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// DeleteIdle evicts sessions with no activity for longer than ttl and
// returns the number removed. LastActivityAt is written under the session
// lock, so each session is locked before inspection; a session whose lock
// is held has a turn in flight and is left alone until the next sweep.
func (s *SessionStore) DeleteIdle(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.TryLock() {
			continue
		}
		idle := sess.LastActivityAt.Before(cutoff)
		sess.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
