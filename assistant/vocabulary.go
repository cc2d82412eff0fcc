package assistant

import (
	"strconv"
	"strings"
)

// Confirmation vocabulary, English and Spanish. Matching is an explicit
// finite set so the state machine's transition function stays total and
// testable; free-form interpretation is left to the extractor.
var (
	yesWords = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
		"ok": true, "okay": true, "confirm": true, "correct": true,
		"si": true, "sí": true, "claro": true, "dale": true, "vale": true,
		"confirmo": true, "correcto": true,
	}

	noWords = map[string]bool{
		"no": true, "n": true, "nope": true, "nah": true,
		"cancel": true, "cancela": true, "cancelar": true, "nada": true,
	}

	skipWords = map[string]bool{
		"skip": true, "none": true, "omit": true,
		"omitir": true, "salta": true, "saltar": true,
		"ninguna": true, "ninguno": true, "paso": true,
	}

	allWords = map[string]bool{
		"all": true, "everything": true,
		"todas": true, "todos": true, "todo": true,
	}
)

// normalizeReply lowercases and strips surrounding punctuation so "Yes!" and
// "sí." match their vocabulary entries
func normalizeReply(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, ".,;:!?¡¿ ")
}

// IsAffirmative reports whether the reply is in the yes vocabulary
func IsAffirmative(reply string) bool {
	return yesWords[normalizeReply(reply)]
}

// IsNegative reports whether the reply is in the no vocabulary
func IsNegative(reply string) bool {
	return noWords[normalizeReply(reply)]
}

// IsSkip reports whether the reply declines a story selection
func IsSkip(reply string) bool {
	norm := normalizeReply(reply)
	return skipWords[norm] || noWords[norm]
}

// IsAll reports whether the reply selects every candidate
func IsAll(reply string) bool {
	norm := normalizeReply(reply)
	return allWords[norm] || yesWords[norm]
}

// ParseSelection parses a story-confirmation reply into 1-based candidate
// indices against n candidates. Non-numeric tokens and indices outside [1,n]
// are discarded; duplicates collapse. Parsing is permissive but never
// defaults to "all" unless the all keyword is literally present.
func ParseSelection(reply string, n int) []int {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})

	seen := make(map[int]bool)
	var selected []int
	for _, field := range fields {
		field = strings.Trim(field, ".")
		idx, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if idx < 1 || idx > n {
			continue
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, idx)
	}
	return selected
}
