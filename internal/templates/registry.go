// Package templates holds the built-in document templates: detection of the
// document type from its text and mapping of a detected document onto the
// template's structured result.
package templates

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/agext/levenshtein"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// detectionThreshold is the share of a template's detection patterns that
// must match before the template is chosen.
const detectionThreshold = 0.6

// FieldGroup places a template field in the result.
type FieldGroup string

const (
	GroupMetadata FieldGroup = "invoice_metadata"
	GroupTotals   FieldGroup = "totals"
)

// Field is one value a template extracts.
type Field struct {
	Name     string
	Group    FieldGroup
	Type     constants.FieldType
	Patterns []string
	// TableKeywords are looked up in the first column of the totals table.
	TableKeywords []string
}

// Template describes one document type.
type Template struct {
	ID                string
	Name              string
	DetectionPatterns []string
	Fields            []Field
}

// FieldsIn returns the template's fields of one group in declaration order.
func (t Template) FieldsIn(g FieldGroup) []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Group == g {
			out = append(out, f)
		}
	}
	return out
}

type registered struct {
	tpl       Template
	detectors []*regexp.Regexp
}

// Registry is an immutable set of templates. It is built once and safe for
// any number of concurrent readers.
type Registry struct {
	order []string
	byID  map[string]registered
}

// NewRegistry compiles the detection patterns of every template. Templates
// keep the order they are given in; that order breaks detection ties.
func NewRegistry(tpls ...Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]registered, len(tpls))}
	for _, t := range tpls {
		if t.ID == "" {
			return nil, fmt.Errorf("template %q has no id", t.Name)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %q registered twice", t.ID)
		}
		reg := registered{tpl: t}
		for _, p := range t.DetectionPatterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("template %q: detection pattern %q: %w", t.ID, p, err)
			}
			reg.detectors = append(reg.detectors, re)
		}
		r.byID[t.ID] = reg
		r.order = append(r.order, t.ID)
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(TurkishEInvoice())
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the process-wide registry of built-in templates.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Get returns the template registered under id.
func (r *Registry) Get(id string) (Template, bool) {
	reg, ok := r.byID[id]
	return reg.tpl, ok
}

// maxSuggestDistance is the largest edit distance Suggest accepts.
const maxSuggestDistance = 3

// Suggest returns the registered id closest to an unknown id, or "" when
// none is within a few edits.
func (r *Registry) Suggest(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	best, bestDist := "", maxSuggestDistance+1
	for _, known := range r.order {
		if d := levenshtein.Distance(id, known, nil); d < bestDist {
			best, bestDist = known, d
		}
	}
	return best
}

// List returns the registered templates in registration order.
func (r *Registry) List() []entity.TemplateSummary {
	out := make([]entity.TemplateSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, entity.TemplateSummary{ID: id, Name: r.byID[id].tpl.Name})
	}
	return out
}

// Detect returns the first template, in registration order, for which at
// least 60% of the detection patterns occur in text.
func (r *Registry) Detect(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, id := range r.order {
		reg := r.byID[id]
		if len(reg.detectors) == 0 {
			continue
		}
		hits := 0
		for _, re := range reg.detectors {
			if re.MatchString(lower) {
				hits++
			}
		}
		if float64(hits) >= float64(len(reg.detectors))*detectionThreshold {
			return id, true
		}
	}
	return "", false
}
