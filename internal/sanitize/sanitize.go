// Package sanitize normalizes user-supplied chunk names and search keywords
// before they reach the graph store. It strips control characters that would
// otherwise corrupt keys or terminal output while preserving the visible text.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywordLength is the maximum allowed length for search keywords.
const MaxKeywordLength = 200

// ChunkName sanitizes a chunk name: control characters (including newline
// and tab) are removed and surrounding whitespace is trimmed. Interior spaces
// and punctuation are kept, so "Chunk 12: intro" style names survive intact.
func ChunkName(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(stripControlChars(input, false))
}

// Keyword sanitizes a search keyword: control characters are removed,
// surrounding whitespace is trimmed and the result is truncated to
// MaxKeywordLength runes.
func Keyword(input string) string {
	if input == "" {
		return ""
	}
	s := strings.TrimSpace(stripControlChars(input, false))
	if utf8.RuneCountInString(s) > MaxKeywordLength {
		runes := []rune(s)
		s = string(runes[:MaxKeywordLength])
	}
	return s
}

// Fragment sanitizes a name fragment used for renaming: control characters
// are removed but surrounding whitespace is kept, since " draft" and "draft"
// are different replacements.
func Fragment(input string) string {
	return stripControlChars(input, false)
}

// Text normalizes a multi-line ingestion payload: CRLF line endings become LF
// and control characters other than newline and tab are removed.
func Text(input string) string {
	if input == "" {
		return ""
	}
	s := strings.ReplaceAll(input, "\r\n", "\n")
	return stripControlChars(s, true)
}

// stripControlChars removes Unicode control characters from s. When
// keepLayout is true, newline and tab are preserved.
func stripControlChars(s string, keepLayout bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			if keepLayout && (r == '\n' || r == '\t') {
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
