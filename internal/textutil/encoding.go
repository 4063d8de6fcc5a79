// Package textutil repairs text produced by PDF extraction before any
// pattern is run against it.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = map[rune]string{
	'\ufffd': "-", // replacement character
	'\u2010': "-", // hyphen
	'\u2011': "-", // non-breaking hyphen
	'\u2012': "-", // figure dash
	'\u2013': "-", // en dash
	'\u2014': "-", // em dash
	'\u2015': "-", // horizontal bar
	'\u2018': "'",
	'\u2019': "'",
	'\u201a': "'",
	'\u201c': `"`,
	'\u201d': `"`,
	'\u201e': `"`,
	'\ufb01': "fi",
	'\ufb02': "fl",
}

// CleanEncoding normalizes dashes, quotes and ligatures, replaces control
// characters other than \n \r \t with '-', drops the remaining invisible
// format characters and returns NFC-composed text.
func CleanEncoding(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := punctuation[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}

	t := transform.Chain(
		runes.Map(controlToDash),
		runes.Remove(runes.Predicate(isOtherInvisible)),
		norm.NFC,
	)
	out, _, err := transform.String(t, b.String())
	if err != nil {
		return b.String()
	}
	return out
}

// CleanResponse is the lighter cleanup applied to model output: only the
// punctuation map, so JSON structure is never touched.
func CleanResponse(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\ufb01' || r == '\ufb02' {
			b.WriteRune(r)
			continue
		}
		if rep, ok := punctuation[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func controlToDash(r rune) rune {
	if r == '\n' || r == '\r' || r == '\t' {
		return r
	}
	if unicode.Is(unicode.Cc, r) {
		return '-'
	}
	return r
}

// isOtherInvisible matches the C categories other than Cc.
func isOtherInvisible(r rune) bool {
	return unicode.In(r, unicode.Cf, unicode.Co, unicode.Cs)
}
