package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldName strips diacritics, lower-cases and drops everything that is
// not a letter or digit, so "Zürich " and "zurich" compare equal.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isCentroidMatch reports whether the geocoder matched region1 itself
// rather than something inside it.
func isCentroidMatch(matchedName string, region1 string) bool {
	found := foldName(matchedName)
	r1 := foldName(region1)
	if found == "" || r1 == "" {
		return false
	}
	return strings.HasPrefix(found, r1)
}
