package domain

import "testing"

func TestConditionSet_SetAndGet(t *testing.T) {
	set := NewConditionSet()
	set.Set("Vomiting", "Yes", SourceExtracted)

	if got := set.Value("vomiting"); got != "yes" {
		t.Fatalf("expected normalized value %q, got %q", "yes", got)
	}
	if !set.Has("vomiting") {
		t.Fatal("expected vomiting to be asserted")
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 condition, got %d", set.Len())
	}
}

func TestConditionSet_LastWriteWins(t *testing.T) {
	set := NewConditionSet()
	set.Set("vomiting", "yes", SourceExtracted)
	set.Set("vomiting", "no", SourceExtracted)

	if got := set.Value("vomiting"); got != "no" {
		t.Fatalf("expected re-assertion to overwrite, got %q", got)
	}
}

func TestConditionSet_UnknownNeverOverwritesKnown(t *testing.T) {
	set := NewConditionSet()
	set.Set("vomiting", "yes", SourceExtracted)
	set.Set("vomiting", "unknown", SourceExtracted)

	if got := set.Value("vomiting"); got != "yes" {
		t.Fatalf("expected unknown to be discarded, got %q", got)
	}
}

func TestConditionSet_UnknownRecordedWhenNothingKnown(t *testing.T) {
	set := NewConditionSet()
	set.Set("vomiting", "unknown", SourceExtracted)

	c, ok := set.Get("vomiting")
	if !ok {
		t.Fatal("expected unknown value to be recorded")
	}
	if c.Known() {
		t.Fatal("unknown value must not count as asserted")
	}
	if set.Has("vomiting") {
		t.Fatal("Has must be false for unknown values")
	}
}

func TestConditionSet_EmptyValueTreatedAsUnknown(t *testing.T) {
	set := NewConditionSet()
	set.Set("lethargy", "", SourceExtracted)

	if set.Has("lethargy") {
		t.Fatal("empty value must not count as asserted")
	}
	if got := set.Value("lethargy"); got != "" {
		t.Fatalf("Value must return empty for unknown, got %q", got)
	}
}

func TestConditionSet_MergeQuarantinesUnrecognizedKeys(t *testing.T) {
	set := NewConditionSet()
	vocab := map[string]bool{"vomiting": true, "lethargy": true}

	accepted, unrecognized := set.Merge(map[string]string{
		"vomiting":   "yes",
		"spacesuit":  "yes",
		"Lethargy":   "no",
		"tail_color": "green",
	}, vocab)

	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted keys, got %v", accepted)
	}
	if len(unrecognized) != 2 {
		t.Fatalf("expected 2 quarantined keys, got %v", unrecognized)
	}
	if set.Len() != 2 {
		t.Fatalf("quarantined keys must not enter the set, got %d entries", set.Len())
	}
}

func TestConditionSet_CloneIsIndependent(t *testing.T) {
	set := NewConditionSet()
	set.Set("vomiting", "yes", SourceExtracted)

	clone := set.Clone()
	clone.Set("vomiting", "no", SourceExtracted)

	if set.Value("vomiting") != "yes" {
		t.Fatal("mutating the clone must not affect the original")
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Facial Swelling "); got != "facial_swelling" {
		t.Fatalf("got %q", got)
	}
}
