// Package match finds a single field value in document text, by regular
// expression, by fuzzy keyword search, or by asking a generative model.
package match

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

type compiled struct {
	re  *regexp.Regexp
	err error
}

// PatternMatcher tries regular expressions in order and returns the first
// hit. Patterns are compiled case-insensitive with '.' matching newlines;
// compiled forms are cached and safe for concurrent use.
type PatternMatcher struct {
	cache  sync.Map // pattern -> compiled
	logger *slog.Logger
}

func NewPatternMatcher(logger *slog.Logger) *PatternMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternMatcher{logger: logger}
}

// Compile returns the cached compiled form of pattern.
func (m *PatternMatcher) Compile(pattern string) (*regexp.Regexp, error) {
	if c, ok := m.cache.Load(pattern); ok {
		cc := c.(compiled)
		return cc.re, cc.err
	}
	re, err := regexp.Compile("(?is)" + pattern)
	c, _ := m.cache.LoadOrStore(pattern, compiled{re: re, err: err})
	cc := c.(compiled)
	return cc.re, cc.err
}

// Match returns the trimmed first capture group of the first matching
// pattern, or the whole match when the pattern has no group. Invalid
// patterns are skipped. The first pattern that matches decides, even when
// its value trims to "".
func (m *PatternMatcher) Match(patterns []string, text string) (string, bool) {
	for _, p := range patterns {
		re, err := m.Compile(p)
		if err != nil {
			m.logger.Debug("match.pattern.invalid", "pattern", p, "error", err)
			continue
		}
		idx := re.FindStringSubmatchIndex(text)
		if idx == nil {
			continue
		}
		start, end := idx[0], idx[1]
		if re.NumSubexp() > 0 {
			if idx[2] < 0 {
				return "", true
			}
			start, end = idx[2], idx[3]
		}
		return strings.TrimSpace(text[start:end]), true
	}
	return "", false
}

// FindAll returns every first-group (or whole) match of pattern in text.
func (m *PatternMatcher) FindAll(pattern, text string) []string {
	re, err := m.Compile(pattern)
	if err != nil {
		m.logger.Debug("match.pattern.invalid", "pattern", pattern, "error", err)
		return nil
	}
	var out []string
	for _, sm := range re.FindAllStringSubmatch(text, -1) {
		v := sm[0]
		if len(sm) > 1 {
			v = sm[1]
		}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
