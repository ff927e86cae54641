package segment

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// canonical lowercases a segment label and folds full-width characters so
// that dictionary lookups are insensitive to the formatting quirks of
// filing tables.
func canonical(s string) string {
	s = width.Fold.String(s)
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
