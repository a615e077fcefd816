// Package catalog provides a JSON file rule source, so the engine can run
// without a database.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vetbox/vetbox/internal/domain"
)

// FileSource loads the rule catalog and question templates from a single
// JSON file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type catalogFile struct {
	Rules     []domain.Rule     `json:"rules"`
	Questions map[string]string `json:"questions"`
}

func (s *FileSource) load() (*catalogFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	return &cf, nil
}

func (s *FileSource) LoadRules(ctx context.Context) ([]domain.Rule, error) {
	cf, err := s.load()
	if err != nil {
		return nil, err
	}
	return cf.Rules, nil
}

func (s *FileSource) LoadQuestionTemplates(ctx context.Context) (map[string]string, error) {
	cf, err := s.load()
	if err != nil {
		return nil, err
	}
	if cf.Questions == nil {
		cf.Questions = make(map[string]string)
	}
	return cf.Questions, nil
}
