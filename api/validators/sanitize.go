package validators

import "strings"

// MaxNameLength bounds free-text names copied into client state.
const MaxNameLength = 200

// SanitizeString trims input and cuts it to maxLen runes. maxLen <= 0 only trims.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}
