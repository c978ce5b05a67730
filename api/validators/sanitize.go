package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input, collapses inner whitespace runs to one space
// and cuts the result to maxLen runes. Names and addresses are mostly
// Vietnamese, so the cut never splits a multi-byte character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	return strings.TrimSpace(string([]rune(cleaned)[:maxLen]))
}
