package store

import (
	"testing"
	"time"

	"github.com/vetbox/vetbox/internal/domain"
)

func TestSessionStore_GetOrCreate(t *testing.T) {
	s := NewSessionStore()

	first := s.GetOrCreate("abc")
	if first == nil || first.ID != "abc" {
		t.Fatalf("expected fresh session with id abc, got %+v", first)
	}
	if first.State != domain.StateInit {
		t.Fatalf("new session must start in %s, got %s", domain.StateInit, first.State)
	}

	second := s.GetOrCreate("abc")
	if second != first {
		t.Fatal("same id must return the same session instance")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestSessionStore_Get(t *testing.T) {
	s := NewSessionStore()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss for unknown id")
	}

	s.GetOrCreate("abc")
	if _, ok := s.Get("abc"); !ok {
		t.Fatal("expected hit after create")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("abc")

	s.Delete("abc")
	if _, ok := s.Get("abc"); ok {
		t.Fatal("expected session gone after delete")
	}
	if s.Len() != 0 {
		t.Fatalf("expected 0 sessions, got %d", s.Len())
	}
}

// Touch runs under the session lock while the janitor sweeps; the race
// detector flags this if DeleteIdle reads LastActivityAt unguarded.
func TestSessionStore_DeleteIdleConcurrentWithTurns(t *testing.T) {
	s := NewSessionStore()
	sess := s.GetOrCreate("busy")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			sess.Lock()
			sess.Touch()
			sess.Unlock()
		}
	}()

	for i := 0; i < 200; i++ {
		s.DeleteIdle(time.Hour)
	}
	<-done

	if _, ok := s.Get("busy"); !ok {
		t.Fatal("active session must survive the sweeps")
	}
}

func TestSessionStore_DeleteIdleSkipsLockedSession(t *testing.T) {
	s := NewSessionStore()

	sess := s.GetOrCreate("in-flight")
	sess.LastActivityAt = time.Now().UTC().Add(-time.Hour)
	sess.Lock()
	defer sess.Unlock()

	if removed := s.DeleteIdle(time.Minute); removed != 0 {
		t.Fatalf("expected 0 evictions while the turn holds the lock, got %d", removed)
	}
	if _, ok := s.Get("in-flight"); !ok {
		t.Fatal("session with a turn in flight must not be evicted")
	}
}

func TestSessionStore_DeleteIdle(t *testing.T) {
	s := NewSessionStore()

	stale := s.GetOrCreate("stale")
	stale.LastActivityAt = time.Now().UTC().Add(-time.Hour)
	fresh := s.GetOrCreate("fresh")
	fresh.Touch()

	removed := s.DeleteIdle(30 * time.Minute)
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if _, ok := s.Get("stale"); ok {
		t.Fatal("stale session must be evicted")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Fatal("fresh session must survive")
	}
}
