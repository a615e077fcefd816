package engine

import "github.com/vetbox/vetbox/internal/domain"

// NextKey chooses the single condition key to ask about next. From the
// top-ranked candidate's missing keys it picks the one referenced by the
// largest number of other surviving candidates, so one answer prunes the
// most rules. Ties fall to lexical order; MissingKeys is already sorted, so
// keeping the first strict maximum is the lexical winner.
func NextKey(outcome domain.MatchOutcome) (string, bool) {
	if outcome.Kind != domain.OutcomePartial || len(outcome.Candidates) == 0 {
		return "", false
	}

	top := outcome.Candidates[0]
	best := ""
	bestCount := -1
	for _, key := range top.MissingKeys {
		count := 0
		for _, other := range outcome.Candidates[1:] {
			if _, ok := other.Rule.Required[key]; ok {
				count++
			}
		}
		if count > bestCount {
			best = key
			bestCount = count
		}
	}
	return best, best != ""
}
