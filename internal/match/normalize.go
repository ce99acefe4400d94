package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds a name for fuzzy comparison: lower case, with the
// separators '_', '-', '.' and ' ' removed.
//
//	"cacheEnabled"   -> "cacheenabled"
//	"cache_enabled"  -> "cacheenabled"
//	"jdbc-type.NULL" -> "jdbctypenull"
func NormalizeIdent(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' '
}
