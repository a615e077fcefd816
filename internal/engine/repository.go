package engine

import (
	"fmt"

	"github.com/vetbox/vetbox/internal/domain"
)

// InvalidRuleError reports a malformed rule catalog at load time. It is
// fatal to startup and never recovered silently.
type InvalidRuleError struct {
	RuleID int
	Name   string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %d (%s): %s", e.RuleID, e.Name, e.Reason)
}

// Repository is an immutable in-memory index of the rule catalog. It is
// read-only after NewRepository returns and safe for concurrent readers.
type Repository struct {
	rules []domain.Rule
	byID  map[int]*domain.Rule
	byKey map[string][]*domain.Rule
}

// NewRepository validates and indexes the rule catalog. Load fails on a
// rule with zero required conditions, a duplicate id, an unrecognized
// triage level, or a required value of "unknown" (unsatisfiable).
func NewRepository(defs []domain.Rule) (*Repository, error) {
	repo := &Repository{
		rules: make([]domain.Rule, 0, len(defs)),
		byID:  make(map[int]*domain.Rule, len(defs)),
		byKey: make(map[string][]*domain.Rule),
	}

	for _, def := range defs {
		if len(def.Required) == 0 {
			return nil, &InvalidRuleError{RuleID: def.ID, Name: def.Name, Reason: "no required conditions"}
		}
		if !ValidLevel(def.Level) {
			return nil, &InvalidRuleError{RuleID: def.ID, Name: def.Name, Reason: fmt.Sprintf("unrecognized triage level %q", def.Level)}
		}
		if _, dup := repo.byID[def.ID]; dup {
			return nil, &InvalidRuleError{RuleID: def.ID, Name: def.Name, Reason: "duplicate rule id"}
		}

		rule := def
		rule.Required = make(map[string]string, len(def.Required))
		for key, value := range def.Required {
			k := domain.NormalizeKey(key)
			v := domain.NormalizeValue(value)
			if v == domain.ValueUnknown {
				return nil, &InvalidRuleError{RuleID: def.ID, Name: def.Name,
					Reason: fmt.Sprintf("required value %q for key %q can never be satisfied", value, key)}
			}
			rule.Required[k] = v
		}

		repo.rules = append(repo.rules, rule)
		ptr := &repo.rules[len(repo.rules)-1]
		repo.byID[rule.ID] = ptr
		for key := range rule.Required {
			repo.byKey[key] = append(repo.byKey[key], ptr)
		}
	}

	return repo, nil
}

func ValidLevel(l domain.TriageLevel) bool {
	return domain.ValidTriageLevel(string(l))
}

// Rules returns the catalog in load order.
func (r *Repository) Rules() []*domain.Rule {
	out := make([]*domain.Rule, len(r.rules))
	for i := range r.rules {
		out[i] = &r.rules[i]
	}
	return out
}

// CandidatesFor returns the rules referencing the given condition key.
func (r *Repository) CandidatesFor(key string) []*domain.Rule {
	return r.byKey[domain.NormalizeKey(key)]
}

// Get returns the rule with the given id.
func (r *Repository) Get(id int) (*domain.Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// Keys returns the condition key vocabulary: every key any rule requires.
func (r *Repository) Keys() map[string]bool {
	out := make(map[string]bool, len(r.byKey))
	for key := range r.byKey {
		out[key] = true
	}
	return out
}

// Len returns the number of rules in the catalog.
func (r *Repository) Len() int {
	return len(r.rules)
}
