package engine

import (
	"testing"

	"github.com/vetbox/vetbox/internal/domain"
	"pgregory.net/rapid"
)

var (
	genKey   = rapid.SampledFrom([]string{"vomiting", "lethargy", "coughing", "hives", "collapse", "appetite"})
	genValue = rapid.SampledFrom([]string{"yes", "no"})
	genLevel = rapid.SampledFrom([]domain.TriageLevel{domain.LevelEmergency, domain.LevelUrgent, domain.LevelRoutine})
)

func genRules(t *rapid.T) []domain.Rule {
	n := rapid.IntRange(1, 6).Draw(t, "ruleCount")
	rules := make([]domain.Rule, 0, n)
	for i := 0; i < n; i++ {
		required := rapid.MapOfN(genKey, genValue, 1, 4).Draw(t, "required")
		rules = append(rules, domain.Rule{
			ID:       i + 1,
			Name:     "generated",
			Required: required,
			Level:    genLevel.Draw(t, "level"),
			Priority: rapid.IntRange(0, 5).Draw(t, "priority"),
			Advice:   "generated advice",
		})
	}
	return rules
}

func genConditions(t *rapid.T) *domain.ConditionSet {
	set := domain.NewConditionSet()
	pairs := rapid.MapOfN(genKey, rapid.SampledFrom([]string{"yes", "no", "unknown"}), 0, 6).Draw(t, "conditions")
	for k, v := range pairs {
		set.Set(k, v, domain.SourceExtracted)
	}
	return set
}

func outcomeFingerprint(res Result) (domain.OutcomeKind, int, []int, []string) {
	matchID := 0
	if res.Outcome.Match != nil {
		matchID = res.Outcome.Match.ID
	}
	if res.Outcome.Deferred != nil {
		matchID = res.Outcome.Deferred.ID
	}
	var candidateIDs []int
	var missing []string
	for _, c := range res.Outcome.Candidates {
		candidateIDs = append(candidateIDs, c.Rule.ID)
		missing = append(missing, c.MissingKeys...)
	}
	return res.Outcome.Kind, matchID, candidateIDs, missing
}

// Repeated calls with identical inputs yield an identical outcome,
// tie-break winners included.
func TestMatch_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo, err := NewRepository(genRules(t))
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		set := genConditions(t)
		opts := Options{PreferSeverityExploration: rapid.Bool().Draw(t, "explore")}

		first := Match(set, repo, opts)
		second := Match(set, repo, opts)

		k1, m1, c1, miss1 := outcomeFingerprint(first)
		k2, m2, c2, miss2 := outcomeFingerprint(second)
		if k1 != k2 || m1 != m2 {
			t.Fatalf("outcome changed between identical calls: %v/%d vs %v/%d", k1, m1, k2, m2)
		}
		if len(c1) != len(c2) {
			t.Fatalf("candidate count changed: %v vs %v", c1, c2)
		}
		for i := range c1 {
			if c1[i] != c2[i] {
				t.Fatalf("candidate order changed: %v vs %v", c1, c2)
			}
		}
		for i := range miss1 {
			if miss1[i] != miss2[i] {
				t.Fatalf("missing keys changed: %v vs %v", miss1, miss2)
			}
		}
	})
}

// Adding a condition can only remove rules from contention or move a rule
// from partial toward full match; it never resurrects a contradicted rule
// and never grows a rule's missing set.
func TestMatch_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := genRules(t)
		set := genConditions(t)

		key := genKey.Draw(t, "newKey")
		value := genValue.Draw(t, "newValue")
		grown := set.Clone()
		grown.Set(key, value, domain.SourceExtracted)

		for i := range rules {
			rule := &rules[i]

			if _, wasContradicted := contradictedKey(rule, set); wasContradicted {
				if _, still := contradictedKey(rule, grown); !still {
					t.Fatalf("rule %d resurrected after adding %s=%s", rule.ID, key, value)
				}
				continue
			}

			if _, nowContradicted := contradictedKey(rule, grown); nowContradicted {
				continue
			}
			before := missingKeys(rule, set)
			after := missingKeys(rule, grown)
			if len(after) > len(before) {
				t.Fatalf("rule %d missing set grew from %v to %v", rule.ID, before, after)
			}
			beforeSet := make(map[string]bool, len(before))
			for _, k := range before {
				beforeSet[k] = true
			}
			for _, k := range after {
				if !beforeSet[k] {
					t.Fatalf("rule %d gained missing key %q", rule.ID, k)
				}
			}
		}
	})
}

// A full match under default options is never ranked below another full
// match of higher severity, regardless of insertion order.
func TestMatch_SeverityWinsFullMatchTies(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		required := rapid.MapOfN(genKey, genValue, 1, 3).Draw(t, "required")

		levels := rapid.SliceOfN(genLevel, 2, 5).Draw(t, "levels")
		rules := make([]domain.Rule, 0, len(levels))
		maxSeverity := 0
		for i, level := range levels {
			rules = append(rules, domain.Rule{
				ID: i + 1, Name: "tied", Required: required, Level: level, Advice: "a",
			})
			if level.Severity() > maxSeverity {
				maxSeverity = level.Severity()
			}
		}

		repo, err := NewRepository(rules)
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}

		set := domain.NewConditionSet()
		for k, v := range required {
			set.Set(k, v, domain.SourceExtracted)
		}

		res := Match(set, repo, Options{})
		if res.Outcome.Kind != domain.OutcomeFullMatch {
			t.Fatalf("expected full match, got %v", res.Outcome.Kind)
		}
		if res.Outcome.Match.Level.Severity() != maxSeverity {
			t.Fatalf("expected severity %d winner, got %s", maxSeverity, res.Outcome.Match.Level)
		}
	})
}
