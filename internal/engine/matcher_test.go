package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vetbox/vetbox/internal/domain"
)

func mustRepo(t *testing.T, rules ...domain.Rule) *Repository {
	t.Helper()
	repo, err := NewRepository(rules)
	require.NoError(t, err)
	return repo
}

func conditions(pairs map[string]string) *domain.ConditionSet {
	set := domain.NewConditionSet()
	for k, v := range pairs {
		set.Set(k, v, domain.SourceExtracted)
	}
	return set
}

func rule(id int, name string, level domain.TriageLevel, priority int, required map[string]string) domain.Rule {
	return domain.Rule{ID: id, Name: name, Level: level, Priority: priority, Advice: "advice " + name, Required: required}
}

func TestMatch_FullMatch(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "combo", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes", "lethargy": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes", "lethargy": "yes"}), repo, Options{})
	require.Equal(t, domain.OutcomeFullMatch, res.Outcome.Kind)
	require.Equal(t, 1, res.Outcome.Match.ID)
	require.NotEmpty(t, res.Log)
}

// Satisfied subset wins over a larger rule still missing conditions: with
// only vomiting asserted, the single-condition rule is already a full match
// and, by default, finalizes instead of probing the stricter one.
func TestMatch_FullMatchBeatsLargerPartial(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "combo", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes", "lethargy": "yes"}),
		rule(2, "simple", domain.LevelRoutine, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{})
	require.Equal(t, domain.OutcomeFullMatch, res.Outcome.Kind)
	require.Equal(t, 2, res.Outcome.Match.ID)
}

// With severity exploration on, the same inputs defer the routine full match
// while the urgent candidate is still open.
func TestMatch_SeverityExplorationDefersFullMatch(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "combo", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes", "lethargy": "yes"}),
		rule(2, "simple", domain.LevelRoutine, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{PreferSeverityExploration: true})
	require.Equal(t, domain.OutcomePartial, res.Outcome.Kind)
	require.NotNil(t, res.Outcome.Deferred)
	require.Equal(t, 2, res.Outcome.Deferred.ID)
	require.Len(t, res.Outcome.Candidates, 1)
	require.Equal(t, 1, res.Outcome.Candidates[0].Rule.ID)
	require.Equal(t, []string{"lethargy"}, res.Outcome.Candidates[0].MissingKeys)
}

// Exploration only defers for strictly higher severity; equal severity
// finalizes immediately.
func TestMatch_SeverityExplorationIgnoresEqualSeverity(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "combo", domain.LevelRoutine, 0, map[string]string{"vomiting": "yes", "lethargy": "yes"}),
		rule(2, "simple", domain.LevelRoutine, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{PreferSeverityExploration: true})
	require.Equal(t, domain.OutcomeFullMatch, res.Outcome.Kind)
	require.Equal(t, 2, res.Outcome.Match.ID)
}

func TestMatch_ContradictionEliminates(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "needs vomiting", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "no"}), repo, Options{})
	require.Equal(t, domain.OutcomeNoViable, res.Outcome.Kind)
}

func TestMatch_UnknownCountsAsMissingNotContradicting(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "needs vomiting", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "unknown"}), repo, Options{})
	require.Equal(t, domain.OutcomePartial, res.Outcome.Kind)
	require.Equal(t, []string{"vomiting"}, res.Outcome.Candidates[0].MissingKeys)
}

func TestMatch_FullMatchTieBreakSeverity(t *testing.T) {
	// Insertion order deliberately puts the lower severity first.
	repo := mustRepo(t,
		rule(1, "routine", domain.LevelRoutine, 99, map[string]string{"vomiting": "yes"}),
		rule(2, "emergency", domain.LevelEmergency, 0, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{})
	require.Equal(t, domain.OutcomeFullMatch, res.Outcome.Kind)
	require.Equal(t, 2, res.Outcome.Match.ID)
}

func TestMatch_FullMatchTieBreakPriority(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "low", domain.LevelUrgent, 10, map[string]string{"vomiting": "yes"}),
		rule(2, "high", domain.LevelUrgent, 20, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{})
	require.Equal(t, 2, res.Outcome.Match.ID)
}

func TestMatch_FullMatchTieBreakLowestID(t *testing.T) {
	repo := mustRepo(t,
		rule(7, "seven", domain.LevelUrgent, 10, map[string]string{"vomiting": "yes"}),
		rule(3, "three", domain.LevelUrgent, 10, map[string]string{"vomiting": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{})
	require.Equal(t, 3, res.Outcome.Match.ID)
}

func TestMatch_PartialRanking(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "three missing", domain.LevelEmergency, 50, map[string]string{"a": "yes", "b": "yes", "c": "yes"}),
		rule(2, "one missing low prio", domain.LevelRoutine, 1, map[string]string{"vomiting": "yes", "a": "yes"}),
		rule(3, "one missing high prio", domain.LevelRoutine, 9, map[string]string{"vomiting": "yes", "b": "yes"}),
		rule(4, "one missing high prio later id", domain.LevelRoutine, 9, map[string]string{"vomiting": "yes", "c": "yes"}),
	)

	res := Match(conditions(map[string]string{"vomiting": "yes"}), repo, Options{})
	require.Equal(t, domain.OutcomePartial, res.Outcome.Kind)

	var ids []int
	for _, c := range res.Outcome.Candidates {
		ids = append(ids, c.Rule.ID)
	}
	// Fewest missing first, then priority descending, then id ascending.
	require.Equal(t, []int{3, 4, 2, 1}, ids)
}

func TestMatch_MissingKeysSorted(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "wide", domain.LevelUrgent, 0, map[string]string{"zeta": "yes", "alpha": "yes", "mid": "yes"}),
	)

	res := Match(domain.NewConditionSet(), repo, Options{})
	require.Equal(t, domain.OutcomePartial, res.Outcome.Kind)
	require.Equal(t, []string{"alpha", "mid", "zeta"}, res.Outcome.Candidates[0].MissingKeys)
}

func TestMatch_EmptySetAllPartial(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "a", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes"}),
		rule(2, "b", domain.LevelUrgent, 0, map[string]string{"lethargy": "yes"}),
	)

	res := Match(domain.NewConditionSet(), repo, Options{})
	require.Equal(t, domain.OutcomePartial, res.Outcome.Kind)
	require.Len(t, res.Outcome.Candidates, 2)
}

func TestMatch_InputNotMutated(t *testing.T) {
	repo := mustRepo(t,
		rule(1, "a", domain.LevelUrgent, 0, map[string]string{"vomiting": "yes"}),
	)
	set := conditions(map[string]string{"vomiting": "yes"})

	before := set.Snapshot()
	_ = Match(set, repo, Options{})
	require.Equal(t, before, set.Snapshot())
}
