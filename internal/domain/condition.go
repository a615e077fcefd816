package domain

import "strings"

// ValueUnknown is the only condition value with special merge semantics:
// it never overwrites a known value and counts as missing during matching.
const ValueUnknown = "unknown"

type ConditionSource string

const (
	SourceExtracted ConditionSource = "extracted"
	SourceConfirmed ConditionSource = "confirmed"
)

// Condition is a single structured symptom fact.
type Condition struct {
	Key    string          `json:"key"`
	Value  string          `json:"value"`
	Source ConditionSource `json:"source"`
}

// Known reports whether the condition carries an asserted value.
func (c Condition) Known() bool {
	return c.Value != "" && c.Value != ValueUnknown
}

// ConditionSet holds all facts known for one conversation. Keys are unique;
// re-assertion overwrites the prior value unless the new value is "unknown".
type ConditionSet struct {
	conditions map[string]Condition
}

func NewConditionSet() *ConditionSet {
	return &ConditionSet{conditions: make(map[string]Condition)}
}

// Get returns the condition for key, if present.
func (s *ConditionSet) Get(key string) (Condition, bool) {
	c, ok := s.conditions[key]
	return c, ok
}

// Value returns the asserted value for key, or "" if the key is absent
// or only known as "unknown".
func (s *ConditionSet) Value(key string) string {
	c, ok := s.conditions[key]
	if !ok || !c.Known() {
		return ""
	}
	return c.Value
}

// Has reports whether key carries an asserted (non-unknown) value.
func (s *ConditionSet) Has(key string) bool {
	return s.Value(key) != ""
}

// Set asserts a condition, applying last-write-wins semantics. An "unknown"
// value is recorded only when the key has no known value yet.
func (s *ConditionSet) Set(key, value string, source ConditionSource) {
	key = NormalizeKey(key)
	value = NormalizeValue(value)
	if key == "" {
		return
	}
	if value == ValueUnknown {
		if existing, ok := s.conditions[key]; ok && existing.Known() {
			return
		}
	}
	s.conditions[key] = Condition{Key: key, Value: value, Source: source}
}

// Merge folds extracted key/value pairs into the set, admitting only keys
// present in vocab. Unrecognized keys are returned for quarantine rather
// than silently entering rule matching.
func (s *ConditionSet) Merge(extracted map[string]string, vocab map[string]bool) (accepted, unrecognized []string) {
	for key, value := range extracted {
		k := NormalizeKey(key)
		if k == "" {
			continue
		}
		if !vocab[k] {
			unrecognized = append(unrecognized, k)
			continue
		}
		s.Set(k, value, SourceExtracted)
		accepted = append(accepted, k)
	}
	return accepted, unrecognized
}

// Len returns the number of keys in the set.
func (s *ConditionSet) Len() int {
	return len(s.conditions)
}

// Snapshot returns a copy of the asserted key/value pairs, including keys
// recorded as "unknown".
func (s *ConditionSet) Snapshot() map[string]string {
	out := make(map[string]string, len(s.conditions))
	for k, c := range s.conditions {
		out[k] = c.Value
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *ConditionSet) Clone() *ConditionSet {
	out := NewConditionSet()
	for k, c := range s.conditions {
		out.conditions[k] = c
	}
	return out
}

// NormalizeKey canonicalizes a condition key: lowercase, trimmed, spaces
// collapsed to underscores.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	return strings.ReplaceAll(key, " ", "_")
}

// NormalizeValue canonicalizes a condition value. Empty values are treated
// as "unknown".
func NormalizeValue(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ValueUnknown
	}
	return value
}
