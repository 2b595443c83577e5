package textutil

import "strings"

// Truncate shortens text to at most limit runes, appending an ellipsis when
// anything was cut. Interior whitespace collapses to single spaces so
// truncated snippets stay on one line.
func Truncate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
