package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio measures how alike a and b are, from 0 to 1, as twice the number of
// matching runes over the total length (Ratcliff/Obershelp, with difflib's
// automatic junk heuristic). Two empty strings are identical.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
