package llm

import (
	"fmt"
	"sort"
	"strings"
)

const extractSystemPrompt = `You are a veterinary triage assistant. Extract structured information from a pet owner's answer.

Given the last question asked, the owner's answer, and the conditions already known, extract every symptom or attribute the answer addresses.

Rules:
- Respond ONLY with a JSON object. No markdown, no explanation.
- For a symptom, use "yes" if confirmed present, "no" if explicitly denied, "unknown" if the owner is unsure.
- For attributes (frequency, duration, location, severity), use the stated value as a short lowercase string.
- Do not guess or infer information the answer does not contain.
- Do not repeat conditions already known unless the answer changes them.
- Use simple, canonical snake_case names.
- If the answer is a single word or phrase naming a symptom, treat it as that symptom confirmed: {"coughing": "yes"}
- Return {} if the answer contains no symptom information.

Examples:
Q: "What symptoms is your pet experiencing?"
A: "She's been vomiting and seems lethargic."
-> {"vomiting": "yes", "lethargy": "yes"}

Q: "Is your pet able to keep water down?"
A: "No, nothing stays down."
-> {"keeps_water_down": "no"}

Q: "How often has your pet been vomiting?"
A: "I'm not sure, maybe a lot?"
-> {"vomiting_frequency": "unknown"}`

// buildExtractPrompt renders the user message for one extraction call.
// Prior conditions are sorted so identical turns produce identical prompts.
func buildExtractPrompt(lastQuestion, answer string, prior map[string]string) string {
	var sb strings.Builder

	if len(prior) > 0 {
		keys := make([]string, 0, len(prior))
		for k := range prior {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Known conditions:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "- %s: %s\n", k, prior[k])
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Q: %q\nA: %q", lastQuestion, answer)
	return sb.String()
}
