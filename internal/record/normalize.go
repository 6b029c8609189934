package record

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery produces the comparison key for a search query: NFC
// normalized, case folded, inner whitespace collapsed to single spaces.
// Two queries with the same key are the same search.
func NormalizeQuery(q string) string {
	folded := cases.Fold().String(norm.NFC.String(q))
	return strings.Join(strings.Fields(folded), " ")
}
