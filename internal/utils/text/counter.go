// Package text provides utilities for text processing and analysis.
// This package includes reusable functions for character counting and
// truncation that behave correctly on multi-byte text.
package text

// CountRunes counts the number of Unicode characters (runes) in the given text.
// This function correctly handles multi-byte characters including Cyrillic,
// emoji, and other Unicode characters by counting runes instead of bytes.
//
// Examples:
//
//	CountRunes("hello")    // returns 5 (ASCII text)
//	CountRunes("приказ")   // returns 6 (Cyrillic text)
//	CountRunes("Hello👋")  // returns 6 (text with emoji)
//	CountRunes("")         // returns 0 (empty string)
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens text to at most limit runes, appending suffix when
// anything was cut. The suffix does not count against the limit. Byte-based
// slicing would split multi-byte characters, so the cut happens on rune
// boundaries.
//
// Examples:
//
//	Truncate("short", 10, "...")         // returns "short"
//	Truncate("длинный приказ", 7, "...") // returns "длинный..."
func Truncate(text string, limit int, suffix string) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + suffix
}
