package search

import (
	"regexp"
	"strings"
)

// compileWildcard turns a wildcard pattern into an anchored regexp and
// returns the literal prefix before the first wildcard, used to narrow the
// dictionary scan. '*' matches any run of characters, '?' exactly one, and a
// backslash makes the next character literal.
func compileWildcard(pattern string) (*regexp.Regexp, string, error) {
	var expr, prefix strings.Builder
	expr.WriteString(`^(?s:`)
	literalPrefix := true
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			lit := string(runes[i])
			expr.WriteString(regexp.QuoteMeta(lit))
			if literalPrefix {
				prefix.WriteString(lit)
			}
		case r == '*':
			expr.WriteString(`.*`)
			literalPrefix = false
		case r == '?':
			expr.WriteString(`.`)
			literalPrefix = false
		default:
			lit := string(r)
			expr.WriteString(regexp.QuoteMeta(lit))
			if literalPrefix {
				prefix.WriteString(lit)
			}
		}
	}
	expr.WriteString(`)$`)

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, "", err
	}
	return re, prefix.String(), nil
}
