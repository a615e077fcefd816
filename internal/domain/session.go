package domain

import (
	"sync"
	"time"
)

type SessionState string

const (
	StateInit       SessionState = "init"
	StateCollecting SessionState = "collecting"
	StateMatched    SessionState = "matched"
)

// TriageResult is the terminal answer recorded on a matched session.
type TriageResult struct {
	Level  TriageLevel `json:"triage_level"`
	Advice string      `json:"advice"`
	RuleID int         `json:"rule_id,omitempty"`
}

// Session is the per-conversation state. The session controller owns it
// exclusively; the matcher and selector only ever see transient views.
// Concurrent turns for the same session id must not interleave merges, so
// callers hold the session lock for the duration of a turn.
type Session struct {
	mu sync.Mutex

	ID           string
	State        SessionState
	Conditions   *ConditionSet
	Unrecognized []string
	Turns        int
	LastQuestion string
	Result       *TriageResult

	CreatedAt      time.Time
	LastActivityAt time.Time
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             id,
		State:          StateInit,
		Conditions:     NewConditionSet(),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Lock serializes turns on this session (single-writer discipline).
func (s *Session) Lock() { s.mu.Lock() }

func (s *Session) Unlock() { s.mu.Unlock() }

// TryLock acquires the session lock without blocking. The janitor uses it
// so eviction never stalls on, or interleaves with, an in-flight turn.
func (s *Session) TryLock() bool { return s.mu.TryLock() }

// Touch records activity for idle eviction.
func (s *Session) Touch() {
	s.LastActivityAt = time.Now().UTC()
}

// Reset returns the session to a fresh INIT state, discarding the
// condition set, turn counter and terminal result.
func (s *Session) Reset() {
	s.State = StateInit
	s.Conditions = NewConditionSet()
	s.Unrecognized = nil
	s.Turns = 0
	s.LastQuestion = ""
	s.Result = nil
	s.Touch()
}
