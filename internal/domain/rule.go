package domain

// TriageLevel is an ordered severity. Higher severity always wins full-match
// ties so the engine never under-triages.
type TriageLevel string

const (
	LevelEmergency TriageLevel = "emergency"
	LevelUrgent    TriageLevel = "urgent"
	LevelRoutine   TriageLevel = "routine"
)

// Severity returns the ordering weight for a triage level. Unrecognized
// levels rank below everything.
func (l TriageLevel) Severity() int {
	switch l {
	case LevelEmergency:
		return 3
	case LevelUrgent:
		return 2
	case LevelRoutine:
		return 1
	}
	return 0
}

func ValidTriageLevel(l string) bool {
	switch TriageLevel(l) {
	case LevelEmergency, LevelUrgent, LevelRoutine:
		return true
	}
	return false
}

// LowestLevel is the severity used for fallback outcomes.
const LowestLevel = LevelRoutine

// Rule is a diagnostic pattern: all required conditions must hold for a
// full match. Rules are immutable once loaded.
type Rule struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Required map[string]string `json:"required"`
	Level    TriageLevel       `json:"triage_level"`
	Priority int               `json:"priority"`
	Advice   string            `json:"advice"`
}
