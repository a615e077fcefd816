package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vetbox/vetbox/internal/domain"
)

// parseConditions decodes the model's JSON object into normalized
// key/value conditions. Booleans map to yes/no, null to unknown, numbers to
// their decimal text, and string arrays are joined with commas. Nested
// objects are ignored.
func parseConditions(content string) (map[string]string, error) {
	content = stripCodeFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("extractor returned invalid JSON: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		k := domain.NormalizeKey(key)
		if k == "" {
			continue
		}
		switch v := value.(type) {
		case bool:
			if v {
				out[k] = "yes"
			} else {
				out[k] = "no"
			}
		case nil:
			out[k] = domain.ValueUnknown
		case string:
			out[k] = domain.NormalizeValue(v)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case []any:
			var parts []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, domain.NormalizeValue(s))
				}
			}
			if len(parts) > 0 {
				out[k] = strings.Join(parts, ",")
			}
		}
	}
	return out, nil
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
