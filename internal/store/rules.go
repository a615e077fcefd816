package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vetbox/vetbox/internal/domain"
)

// RuleStore loads the rule catalog and question templates from Postgres.
// The catalog is read once per engine lifetime; the engine never touches
// the pool afterwards.
type RuleStore struct {
	db *pgxpool.Pool
}

func NewRuleStore(db *pgxpool.Pool) *RuleStore {
	return &RuleStore{db: db}
}

func (s *RuleStore) LoadRules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, triage_level, priority, advice
		 FROM rules
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.Rule
	index := make(map[int]int)
	for rows.Next() {
		var r domain.Rule
		if err := rows.Scan(&r.ID, &r.Name, &r.Level, &r.Priority, &r.Advice); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Required = make(map[string]string)
		index[r.ID] = len(rules)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	condRows, err := s.db.Query(ctx,
		`SELECT rule_id, condition_key, required_value
		 FROM rule_conditions
		 ORDER BY rule_id, condition_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("query rule conditions: %w", err)
	}
	defer condRows.Close()

	for condRows.Next() {
		var ruleID int
		var key, value string
		if err := condRows.Scan(&ruleID, &key, &value); err != nil {
			return nil, fmt.Errorf("scan rule condition: %w", err)
		}
		i, ok := index[ruleID]
		if !ok {
			return nil, fmt.Errorf("rule condition references unknown rule id %d", ruleID)
		}
		rules[i].Required[key] = value
	}
	return rules, condRows.Err()
}

func (s *RuleStore) LoadQuestionTemplates(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT condition_key, prompt FROM question_templates ORDER BY condition_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("query question templates: %w", err)
	}
	defer rows.Close()

	templates := make(map[string]string)
	for rows.Next() {
		var key, prompt string
		if err := rows.Scan(&key, &prompt); err != nil {
			return nil, fmt.Errorf("scan question template: %w", err)
		}
		templates[key] = prompt
	}
	return templates, rows.Err()
}
