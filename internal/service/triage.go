package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vetbox/vetbox/internal/domain"
	"github.com/vetbox/vetbox/internal/engine"
	"github.com/vetbox/vetbox/internal/store"
	"go.uber.org/zap"
)

const (
	// OpeningQuestion starts every conversation and follows an explicit clear.
	OpeningQuestion = "What symptoms is your pet experiencing?"

	// FallbackAdvice is returned when the engine cannot triage confidently.
	// Failing open with low-severity guidance beats leaving the owner with
	// nothing.
	FallbackAdvice = "We don't have enough information for a confident triage. Monitor your pet closely and contact your veterinarian if anything worsens."

	DefaultMaxTurns = 7
)

var (
	ErrEmptyText        = errors.New("answer text is empty")
	ErrExtractionFailed = errors.New("condition extraction failed")
	ErrSessionNotFound  = errors.New("session not found")
)

// TriageService orchestrates one conversational turn: it merges extracted
// conditions into the session's condition set, runs the matcher, and either
// finalizes a triage or picks the next follow-up question.
type TriageService struct {
	repo      *engine.Repository
	sessions  *store.SessionStore
	extractor domain.ExtractorClient
	questions map[string]string
	vocab     map[string]bool
	opts      engine.Options
	maxTurns  int
	logger    *zap.Logger
}

func NewTriageService(
	repo *engine.Repository,
	sessions *store.SessionStore,
	extractor domain.ExtractorClient,
	questions map[string]string,
	maxTurns int,
	opts engine.Options,
	logger *zap.Logger,
) *TriageService {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	// The merge-boundary vocabulary: every key a rule requires plus every
	// key with a question template. Anything else is quarantined.
	vocab := repo.Keys()
	normalized := make(map[string]string, len(questions))
	for key, prompt := range questions {
		k := domain.NormalizeKey(key)
		vocab[k] = true
		normalized[k] = prompt
	}

	return &TriageService{
		repo:      repo,
		sessions:  sessions,
		extractor: extractor,
		questions: normalized,
		vocab:     vocab,
		opts:      opts,
		maxTurns:  maxTurns,
		logger:    logger,
	}
}

// TurnResult is what one turn returns to the transport layer. Exactly one
// of FollowUpQuestion or TriageLevel/Advice is populated.
type TurnResult struct {
	SessionID        string
	State            domain.SessionState
	FollowUpQuestion string
	TriageLevel      domain.TriageLevel
	Advice           string
	Conditions       map[string]string
	Unrecognized     []string
	Log              []string
}

// SessionSnapshot is a read-only view of a session for debugging UIs.
type SessionSnapshot struct {
	ID             string
	State          domain.SessionState
	Turns          int
	Conditions     map[string]string
	Unrecognized   []string
	Result         *domain.TriageResult
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// SubmitAnswer processes one user answer for the given session. An empty or
// unknown session id auto-creates a fresh session. Turns on the same session
// are serialized; turns on different sessions run fully in parallel.
func (s *TriageService) SubmitAnswer(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := s.sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()
	sess.Touch()

	lastQuestion := sess.LastQuestion
	if lastQuestion == "" {
		lastQuestion = OpeningQuestion
	}

	// Extraction happens before any mutation so a failure leaves the
	// session exactly as it was (no partial merge).
	extracted, err := s.extractor.Extract(ctx, lastQuestion, text, sess.Conditions.Snapshot())
	if err != nil {
		s.logger.Warn("extraction failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, err)
	}

	if sess.State == domain.StateMatched {
		// Terminal session receiving more text: treat it as a correction
		// dialog reopening the same condition set.
		sess.State = domain.StateCollecting
		sess.Result = nil
	}

	accepted, unrecognized := sess.Conditions.Merge(extracted, s.vocab)
	if len(unrecognized) > 0 {
		s.logger.Info("quarantined unrecognized condition keys",
			zap.String("session_id", sessionID),
			zap.Strings("keys", unrecognized))
		sess.Unrecognized = appendUnique(sess.Unrecognized, unrecognized)
	}
	s.logger.Debug("merged conditions",
		zap.String("session_id", sessionID),
		zap.Strings("accepted", accepted),
		zap.Int("total", sess.Conditions.Len()))

	sess.Turns++
	if sess.State == domain.StateInit {
		sess.State = domain.StateCollecting
	}

	res := engine.Match(sess.Conditions, s.repo, s.opts)
	log := res.Log

	switch res.Outcome.Kind {
	case domain.OutcomeFullMatch:
		s.finalize(sess, res.Outcome.Match)

	case domain.OutcomeNoViable:
		s.finalizeFallback(sess, &log)

	case domain.OutcomePartial:
		if sess.Turns >= s.maxTurns {
			s.finalizeBestEffort(sess, res.Outcome, &log)
			break
		}

		key, ok := engine.NextKey(res.Outcome)
		if !ok {
			s.finalizeFallback(sess, &log)
			break
		}
		question := s.questionFor(key)
		log.Append(domain.StageFollowUpChosen, "asking about %q: %s", key, question)
		sess.LastQuestion = question
	}

	return s.turnResult(sess, log), nil
}

// ClearSession resets the session to INIT with an empty condition set and
// returns the opening prompt. Unknown ids create a fresh session.
func (s *TriageService) ClearSession(ctx context.Context, sessionID string) (*TurnResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := s.sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	sess.Reset()
	sess.LastQuestion = OpeningQuestion
	s.logger.Debug("session cleared", zap.String("session_id", sessionID))

	return &TurnResult{
		SessionID:        sess.ID,
		State:            sess.State,
		FollowUpQuestion: OpeningQuestion,
		Conditions:       sess.Conditions.Snapshot(),
	}, nil
}

// GetSession returns a read-only snapshot of a session.
func (s *TriageService) GetSession(sessionID string) (*SessionSnapshot, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Lock()
	defer sess.Unlock()

	snap := &SessionSnapshot{
		ID:             sess.ID,
		State:          sess.State,
		Turns:          sess.Turns,
		Conditions:     sess.Conditions.Snapshot(),
		Unrecognized:   append([]string(nil), sess.Unrecognized...),
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: sess.LastActivityAt,
	}
	if sess.Result != nil {
		result := *sess.Result
		snap.Result = &result
	}
	return snap, nil
}

func (s *TriageService) finalize(sess *domain.Session, rule *domain.Rule) {
	sess.State = domain.StateMatched
	sess.Result = &domain.TriageResult{
		Level:  rule.Level,
		Advice: renderAdvice(rule.Advice, sess.Conditions),
		RuleID: rule.ID,
	}
}

// finalizeBestEffort resolves an exhausted turn budget. A deferred full
// match wins outright; a head candidate with at least one satisfied
// condition is a defensible best-effort triage; otherwise there is no real
// evidence and the low-severity fallback applies.
func (s *TriageService) finalizeBestEffort(sess *domain.Session, outcome domain.MatchOutcome, log *domain.DecisionLog) {
	if outcome.Deferred != nil {
		log.Append(domain.StageMatchFound, "turn budget reached, finalizing deferred rule %d (%s)",
			outcome.Deferred.ID, outcome.Deferred.Name)
		s.finalize(sess, outcome.Deferred)
		return
	}

	head := outcome.Candidates[0]
	if satisfiedCount(head.Rule, sess.Conditions) > 0 {
		log.Append(domain.StageMatchFound, "turn budget reached, best-effort triage from rule %d (%s), %d conditions still missing",
			head.Rule.ID, head.Rule.Name, len(head.MissingKeys))
		s.finalize(sess, head.Rule)
		return
	}

	log.Append(domain.StageMatchFound, "turn budget reached with no supporting evidence, falling back")
	s.finalizeFallback(sess, log)
}

func (s *TriageService) finalizeFallback(sess *domain.Session, log *domain.DecisionLog) {
	log.Append(domain.StageMatchFound, "finalizing with fallback advice at triage level %s", domain.LowestLevel)
	sess.State = domain.StateMatched
	sess.Result = &domain.TriageResult{
		Level:  domain.LowestLevel,
		Advice: FallbackAdvice,
	}
}

func (s *TriageService) questionFor(key string) string {
	if prompt, ok := s.questions[key]; ok {
		return prompt
	}
	return fmt.Sprintf("Can you tell me about your pet's %s?", strings.ReplaceAll(key, "_", " "))
}

func (s *TriageService) turnResult(sess *domain.Session, log domain.DecisionLog) *TurnResult {
	result := &TurnResult{
		SessionID:    sess.ID,
		State:        sess.State,
		Conditions:   sess.Conditions.Snapshot(),
		Unrecognized: append([]string(nil), sess.Unrecognized...),
		Log:          log.Strings(),
	}
	if sess.State == domain.StateMatched && sess.Result != nil {
		result.TriageLevel = sess.Result.Level
		result.Advice = sess.Result.Advice
	} else {
		result.FollowUpQuestion = sess.LastQuestion
	}
	return result
}

// satisfiedCount returns how many of the rule's required conditions the set
// already meets.
func satisfiedCount(rule *domain.Rule, set *domain.ConditionSet) int {
	n := 0
	for key, required := range rule.Required {
		if set.Value(key) == required {
			n++
		}
	}
	return n
}

// renderAdvice substitutes {key} placeholders in rule advice with the
// asserted condition values.
func renderAdvice(template string, set *domain.ConditionSet) string {
	if !strings.Contains(template, "{") {
		return template
	}
	out := template
	for key, value := range set.Snapshot() {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

func appendUnique(existing []string, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, k := range existing {
		seen[k] = true
	}
	for _, k := range extra {
		if !seen[k] {
			existing = append(existing, k)
			seen[k] = true
		}
	}
	return existing
}
