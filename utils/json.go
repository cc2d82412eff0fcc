package utils

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	codeBlockRe  = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseJSONFromLLMResponse robustly parses a JSON object from LLM output into
// out. Handles raw JSON, markdown code fences, and surrounding prose.
func ParseJSONFromLLMResponse(content string, out any) error {
	content = strings.TrimSpace(content)

	// Try direct parse first
	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}

	// Try JSON inside markdown code blocks (```json or ```)
	if matches := codeBlockRe.FindStringSubmatch(content); len(matches) > 1 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), out); err == nil {
			return nil
		}
	}

	// Try the outermost { ... } in surrounding text
	if match := jsonObjectRe.FindString(content); match != "" {
		if err := json.Unmarshal([]byte(match), out); err == nil {
			return nil
		}
	}

	return errors.New("unable to parse JSON from LLM response")
}
