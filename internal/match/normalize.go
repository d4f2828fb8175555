package match

import (
	"strings"
	"unicode"
)

// NormalizeName case-folds a sheet or column name and drops everything that
// is not a letter or digit, so "Effort & Site Conditions" and
// "effort_site-conditions" compare equal.
func NormalizeName(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}
