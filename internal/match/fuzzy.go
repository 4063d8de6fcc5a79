package match

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const defaultFuzzyThreshold = 0.6

// FuzzyMatcher finds the line that best resembles one of the keywords and
// returns what follows the keyword on that line.
type FuzzyMatcher struct {
	threshold float64
}

func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{threshold: defaultFuzzyThreshold}
}

// WithThreshold returns a copy using a different minimum similarity.
func (m *FuzzyMatcher) WithThreshold(t float64) *FuzzyMatcher {
	return &FuzzyMatcher{threshold: t}
}

// Match scores every (line, keyword) pair with Ratio and keeps the first
// best pair scoring above the threshold. The value is the text after the
// keyword and an optional ':', '=' or '-' separator, else the whole line.
func (m *FuzzyMatcher) Match(keywords []string, text string) (string, bool) {
	if len(keywords) == 0 {
		return "", false
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	bestScore := 0.0
	bestLine, bestKeyword := "", ""
	for _, line := range textutil.Lines(text) {
		ll := strings.ToLower(line)
		for i, kw := range keywords {
			score := Ratio(lowered[i], ll)
			if score > bestScore && score > m.threshold {
				bestScore, bestLine, bestKeyword = score, line, kw
			}
		}
	}
	if bestScore == 0 {
		return "", false
	}

	value := strings.TrimSpace(bestLine)
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(bestKeyword) + `\s*[:=\-]?\s*(.+?)(?:\n|$)`)
	if sm := re.FindStringSubmatch(bestLine); sm != nil {
		value = strings.TrimSpace(sm[1])
	}
	return value, value != ""
}
