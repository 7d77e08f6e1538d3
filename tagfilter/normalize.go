package tagfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// AddMarker is the text of the per-tag "add to filter" control. It is
// stripped from tag text so a decorated row yields the same tags as before.
const AddMarker = "[+]"

// Normalize turns raw tag text into a comparable Tag: NFKC compatibility
// folding (full-width and half-width variants collapse), control marker
// text removed, every whitespace rune removed. The result is a fixed point:
// Normalize(Normalize(s)) == Normalize(s). An empty result is not a tag.
//
// The loop ends: after the first round the text is NFKC-stable, so every
// further change removes runes.
func Normalize(s string) string {
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, AddMarker, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// splitTokens splits prose on runs of ASCII or full-width space.
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}
