package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses whitespace runs and
// keeps at most maxLen runes. Values land in sheet cells as typed.
func SanitizeString(input string, maxLen int) string {
	printable := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	clean := []rune(strings.Join(strings.Fields(printable), " "))
	if maxLen > 0 && len(clean) > maxLen {
		clean = clean[:maxLen]
	}
	return strings.TrimSpace(string(clean))
}
