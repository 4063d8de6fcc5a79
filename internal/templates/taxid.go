package templates

import (
	"regexp"
	"slices"

	"github.com/joseph-ayodele/docextract/constants"
)

var vknPatterns = compileAll(
	`vergi\s*no\.?\s*[:\-]?\s*(\d{10})`,
	`vergi\s*numaras[ıiİI]\.?\s*[:\-]?\s*(\d{10})`,
	`vkn\.?\s*[:\-]?\s*(\d{10})`,
	`vergi\s*kimlik\s*no\.?\s*[:\-]?\s*(\d{10})`,
	`vergi\s*kimlik\s*numaras[ıiİI]\.?\s*[:\-]?\s*(\d{10})`,
	`tax\s*no\.?\s*[:\-]?\s*(\d{10})`,
	`tax\s*id\.?\s*[:\-]?\s*(\d{10})`,
)

var tcknPatterns = compileAll(
	`tckn\.?\s*[:\-]?\s*(\d{11})`,
	`tc\s+kimlik\s+no\.?\s*[:\-]?\s*(\d{11})`,
	`tc\s+no\.?\s*[:\-]?\s*(\d{11})`,
	`t\.?\s*c\.?\s*kimlik\s+no\.?\s*[:\-]?\s*(\d{11})`,
	`t\.?\s*c\.?\s*no\.?\s*[:\-]?\s*(\d{11})`,
	`kimlik\s+no\.?\s*[:\-]?\s*(\d{11})`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

// TaxID is one labelled tax identifier found in a header.
type TaxID struct {
	Value string
	Type  constants.TaxIDType
	at    int
}

// FindTaxIDs returns the labelled VKN and TCKN values of a header layout,
// each kind in reading order. A number matched by several labels is reported
// once.
func FindTaxIDs(layout string) (vkn, tckn []TaxID) {
	return findLabelled(layout, vknPatterns, constants.TaxIDVKN),
		findLabelled(layout, tcknPatterns, constants.TaxIDTCKN)
}

func findLabelled(text string, patterns []*regexp.Regexp, typ constants.TaxIDType) []TaxID {
	seen := make(map[int]struct{})
	var out []TaxID
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if _, dup := seen[m[2]]; dup {
				continue
			}
			seen[m[2]] = struct{}{}
			out = append(out, TaxID{Value: text[m[2]:m[3]], Type: typ, at: m[2]})
		}
	}
	slices.SortStableFunc(out, func(a, b TaxID) int { return a.at - b.at })
	return out
}

// AssignTaxIDs gives the first VKN to the sender and the second to the
// recipient. A side left without a VKN takes the next unused TCKN.
func AssignTaxIDs(vkn, tckn []TaxID) (sender, recipient *TaxID) {
	next := 0
	takeTCKN := func() *TaxID {
		if next >= len(tckn) {
			return nil
		}
		id := tckn[next]
		next++
		return &id
	}

	if len(vkn) > 0 {
		id := vkn[0]
		sender = &id
	} else {
		sender = takeTCKN()
	}
	if len(vkn) > 1 {
		id := vkn[1]
		recipient = &id
	} else {
		recipient = takeTCKN()
	}
	return sender, recipient
}
