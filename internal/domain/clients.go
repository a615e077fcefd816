package domain

import "context"

// ExtractorClient turns free-form symptom text into structured key/value
// conditions. The last question asked is passed for context; prior holds the
// conditions already asserted so the extractor does not re-guess them.
// Values follow the condition vocabulary: "yes"/"no"/"unknown" or a bucket
// label string.
type ExtractorClient interface {
	Extract(ctx context.Context, lastQuestion, answer string, prior map[string]string) (map[string]string, error)
}

// RuleSource materializes the rule catalog and the question-template table.
// Whether the catalog lives in a file or a relational store is the source's
// concern; the engine only consumes the loaded structures.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]Rule, error)
	LoadQuestionTemplates(ctx context.Context) (map[string]string, error)
}
