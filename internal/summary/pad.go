package summary

import (
	"strings"
	"unicode/utf8"
)

// PadRight left-justifies s in a field of at least width characters.
// Longer values are returned unchanged, never truncated.
func PadRight(s string, width int) string {
	if n := width - utf8.RuneCountInString(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// PadLeft right-justifies s in a field of at least width characters.
// Longer values are returned unchanged, never truncated.
func PadLeft(s string, width int) string {
	if n := width - utf8.RuneCountInString(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}
