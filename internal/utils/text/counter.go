// Package text provides small text measurement helpers shared by the
// summarizer implementations.
package text

// CountRunes counts Unicode characters rather than bytes, so Cyrillic
// summaries measure correctly against the character limit.
//
//	CountRunes("hello")    // 5
//	CountRunes("привет")   // 6, not 12
func CountRunes(text string) int {
	return len([]rune(text))
}

// TruncateRunes cuts text to at most limit runes, appending the marker when
// anything was cut.
func TruncateRunes(text string, limit int, marker string) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + marker
}
