package textutil

import "strings"

// Truncate shortens s to at most max runes, appending an ellipsis when text
// was cut. Error text shown to users passes through here so a long transport
// failure never floods a status message.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
