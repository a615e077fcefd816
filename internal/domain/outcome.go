package domain

import (
	"fmt"
	"time"
)

type OutcomeKind string

const (
	OutcomeFullMatch OutcomeKind = "full_match"
	OutcomePartial   OutcomeKind = "partial_candidates"
	OutcomeNoViable  OutcomeKind = "no_viable_rule"
)

// PartialCandidate is a surviving rule that is not yet fully satisfied.
// MissingKeys is sorted lexically for deterministic output.
type PartialCandidate struct {
	Rule        *Rule
	MissingKeys []string
}

// MatchOutcome is the tagged result of one matcher evaluation. It is
// recomputed each turn and never persisted.
//
// Deferred carries a fully satisfied rule that the matcher held back while
// a surviving candidate of strictly higher severity is still worth probing
// (severity-exploration policy). It is set only on OutcomePartial.
type MatchOutcome struct {
	Kind       OutcomeKind
	Match      *Rule
	Candidates []PartialCandidate
	Deferred   *Rule
}

// Decision log stages, in the order a turn executes them.
type Stage string

const (
	StageCandidateScan      Stage = "CandidateScan"
	StageContradictionCheck Stage = "ContradictionCheck"
	StageMatchFound         Stage = "MatchFound"
	StageFollowUpChosen     Stage = "FollowUpChosen"
)

// DecisionLogEntry records one stage of matcher reasoning.
type DecisionLogEntry struct {
	Stage     Stage
	Message   string
	Timestamp time.Time
}

// DecisionLog is the ordered trail for a single turn. It is rebuilt fresh
// every turn, a pure projection of that turn's reasoning.
type DecisionLog []DecisionLogEntry

// Append adds an entry stamped with the current time.
func (l *DecisionLog) Append(stage Stage, format string, args ...any) {
	*l = append(*l, DecisionLogEntry{
		Stage:     stage,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	})
}

// Strings renders the trail for transport to the caller.
func (l DecisionLog) Strings() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		out = append(out, fmt.Sprintf("[%s] %s", e.Stage, e.Message))
	}
	return out
}
