package match

import (
	"strings"
	"unicode"
)

// NormalizeColumn folds a column name for fuzzy comparison: lower-cased,
// surrounding whitespace trimmed and separators (_, -, space, .) removed.
// "Site_Address-Postal Code" and "siteaddresspostalcode" normalize equally.
func NormalizeColumn(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range strings.TrimSpace(s) {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}
