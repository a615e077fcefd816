package engine

import (
	"sort"
	"strings"

	"github.com/vetbox/vetbox/internal/domain"
)

// Options configure matcher policy.
type Options struct {
	// PreferSeverityExploration keeps probing toward a surviving candidate
	// of strictly higher severity instead of finalizing an already
	// satisfied lower-severity rule. The satisfied rule is carried on the
	// outcome as Deferred so the controller can still finalize it when the
	// turn budget runs out.
	PreferSeverityExploration bool
}

// Result pairs a match outcome with the decision trail that produced it.
type Result struct {
	Outcome domain.MatchOutcome
	Log     domain.DecisionLog
}

// Match evaluates the condition set against the rule catalog. It is a pure
// function: no I/O, no mutation of its inputs, and deterministic output for
// identical inputs, tie-break winners included.
func Match(set *domain.ConditionSet, repo *Repository, opts Options) Result {
	var log domain.DecisionLog

	asserted := 0
	for _, v := range set.Snapshot() {
		if v != domain.ValueUnknown {
			asserted++
		}
	}
	log.Append(domain.StageCandidateScan, "scanning %d rules against %d asserted conditions", repo.Len(), asserted)

	// Contradiction filter: a known mismatch eliminates the rule for this
	// turn. Eliminated rules are only reconsidered after an explicit clear.
	var survivors []*domain.Rule
	for _, rule := range repo.Rules() {
		if key, ok := contradictedKey(rule, set); ok {
			log.Append(domain.StageContradictionCheck,
				"rule %d (%s) eliminated: %s=%s contradicts required %s=%s",
				rule.ID, rule.Name, key, set.Value(key), key, rule.Required[key])
			continue
		}
		survivors = append(survivors, rule)
	}
	log.Append(domain.StageContradictionCheck, "%d of %d rules survive", len(survivors), repo.Len())

	if len(survivors) == 0 {
		log.Append(domain.StageCandidateScan, "no viable rule remains")
		return Result{Outcome: domain.MatchOutcome{Kind: domain.OutcomeNoViable}, Log: log}
	}

	// Satisfaction scan.
	var full []*domain.Rule
	var partial []domain.PartialCandidate
	for _, rule := range survivors {
		missing := missingKeys(rule, set)
		if len(missing) == 0 {
			full = append(full, rule)
			continue
		}
		partial = append(partial, domain.PartialCandidate{Rule: rule, MissingKeys: missing})
		log.Append(domain.StageCandidateScan, "rule %d (%s) missing %d of %d required conditions: %s",
			rule.ID, rule.Name, len(missing), len(rule.Required), strings.Join(missing, ", "))
	}

	rankPartials(partial)

	if len(full) > 0 {
		best := bestFullMatch(full)
		if opts.PreferSeverityExploration {
			stricter := higherSeverity(partial, best.Level)
			if len(stricter) > 0 {
				log.Append(domain.StageMatchFound,
					"rule %d (%s, %s) fully satisfied but deferred: %d higher-severity candidates still open",
					best.ID, best.Name, best.Level, len(stricter))
				return Result{
					Outcome: domain.MatchOutcome{Kind: domain.OutcomePartial, Candidates: stricter, Deferred: best},
					Log:     log,
				}
			}
		}
		log.Append(domain.StageMatchFound, "rule %d (%s) fully matched, triage level %s", best.ID, best.Name, best.Level)
		return Result{Outcome: domain.MatchOutcome{Kind: domain.OutcomeFullMatch, Match: best}, Log: log}
	}

	top := partial[0]
	log.Append(domain.StageCandidateScan, "top candidate: rule %d (%s), %d conditions missing",
		top.Rule.ID, top.Rule.Name, len(top.MissingKeys))
	return Result{Outcome: domain.MatchOutcome{Kind: domain.OutcomePartial, Candidates: partial}, Log: log}
}

// contradictedKey returns the lexically smallest key whose asserted value
// differs from the rule's required value, if any. Lexical choice keeps the
// decision trail deterministic.
func contradictedKey(rule *domain.Rule, set *domain.ConditionSet) (string, bool) {
	found := ""
	for key, required := range rule.Required {
		if v := set.Value(key); v != "" && v != required {
			if found == "" || key < found {
				found = key
			}
		}
	}
	return found, found != ""
}

// missingKeys returns the rule's required keys not yet asserted (absent or
// "unknown"), sorted lexically.
func missingKeys(rule *domain.Rule, set *domain.ConditionSet) []string {
	var missing []string
	for key := range rule.Required {
		if !set.Has(key) {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// bestFullMatch applies the full-match tie-break: highest severity, then
// highest priority, then lowest id.
func bestFullMatch(full []*domain.Rule) *domain.Rule {
	sort.SliceStable(full, func(i, j int) bool {
		if full[i].Level.Severity() != full[j].Level.Severity() {
			return full[i].Level.Severity() > full[j].Level.Severity()
		}
		if full[i].Priority != full[j].Priority {
			return full[i].Priority > full[j].Priority
		}
		return full[i].ID < full[j].ID
	})
	return full[0]
}

// rankPartials orders candidates by fewest missing keys, then priority
// descending, then id ascending.
func rankPartials(partial []domain.PartialCandidate) {
	sort.SliceStable(partial, func(i, j int) bool {
		if len(partial[i].MissingKeys) != len(partial[j].MissingKeys) {
			return len(partial[i].MissingKeys) < len(partial[j].MissingKeys)
		}
		if partial[i].Rule.Priority != partial[j].Rule.Priority {
			return partial[i].Rule.Priority > partial[j].Rule.Priority
		}
		return partial[i].Rule.ID < partial[j].Rule.ID
	})
}

// higherSeverity filters candidates whose level outranks the given level,
// preserving rank order.
func higherSeverity(partial []domain.PartialCandidate, level domain.TriageLevel) []domain.PartialCandidate {
	var out []domain.PartialCandidate
	for _, c := range partial {
		if c.Rule.Level.Severity() > level.Severity() {
			out = append(out, c)
		}
	}
	return out
}
