package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// ParseAnswerText prepares free-typed answers for comparison: trimmed,
// lowercased, and with internal whitespace runs collapsed to single spaces.
func ParseAnswerText(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}
