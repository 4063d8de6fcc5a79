package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Folded holds two lowercase renderings of a text: the plain Unicode one
// and the Turkish one (I -> ı). Keywords match if either rendering contains
// them, so "AÇIKLAMA" and "MİKTAR" both fold onto their lowercase keywords.
type Folded struct {
	plain   string
	turkish string
}

// Fold computes both renderings of s.
func Fold(s string) Folded {
	return Folded{
		plain:   strings.ToLower(s),
		turkish: cases.Lower(language.Turkish).String(s),
	}
}

// Contains reports whether the lowercase keyword occurs in either rendering.
func (f Folded) Contains(keyword string) bool {
	return strings.Contains(f.plain, keyword) || strings.Contains(f.turkish, keyword)
}

// ContainsAny reports whether any keyword occurs.
func (f Folded) ContainsAny(keywords ...string) bool {
	for _, kw := range keywords {
		if f.Contains(kw) {
			return true
		}
	}
	return false
}

// CountDistinct returns how many keywords occur at least once.
func (f Folded) CountDistinct(keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if f.Contains(kw) {
			n++
		}
	}
	return n
}

func (f Folded) String() string { return f.plain }
