// Package coerce turns extracted raw strings into typed values.
package coerce

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// DefaultMaxDepth bounds how deep nested schemas are followed.
const DefaultMaxDepth = 8

var (
	truthy  = map[string]bool{"true": true, "yes": true, "1": true, "evet": true, "var": true}
	reFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
)

// Coercer converts raw values into the types their schema names.
type Coercer struct {
	maxDepth int
}

func New(maxDepth int) *Coercer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Coercer{maxDepth: maxDepth}
}

var std = New(DefaultMaxDepth)

// Coerce converts raw with the default depth limit.
func Coerce(raw any, field entity.FieldSchema) any {
	return std.Coerce(raw, field)
}

// Coerce converts raw into field's type. nil stays nil. Values that are
// already of the target type pass through unchanged, and a value the
// coercer cannot handle is returned as it came in.
func (c *Coercer) Coerce(raw any, field entity.FieldSchema) (out any) {
	if raw == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = raw
		}
	}()
	return c.coerce(raw, field, 0)
}

func (c *Coercer) coerce(raw any, field entity.FieldSchema, depth int) any {
	if raw == nil {
		return nil
	}
	if depth > c.maxDepth {
		return raw
	}

	switch field.FieldType() {
	case constants.FieldTypeNumber:
		return toNumber(raw)
	case constants.FieldTypeBoolean:
		return toBool(raw)
	case constants.FieldTypeAmount:
		return toAmount(raw)
	case constants.FieldTypeArray:
		return c.toArray(raw, field, depth)
	case constants.FieldTypeObject:
		return c.toObject(raw, field, depth)
	default:
		return raw
	}
}

func toNumber(raw any) any {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return nil
	case string:
		if f, ok := ParseNumber(v); ok {
			return f
		}
		return nil
	}
	return raw
}

func toBool(raw any) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return truthy[strings.ToLower(strings.TrimSpace(v))]
	case float64:
		return v == 1
	}
	return raw
}

func toAmount(raw any) any {
	switch v := raw.(type) {
	case entity.Amount:
		return v
	case string:
		if a, ok := ParseAmount(v); ok {
			return a
		}
		return nil
	case float64:
		return entity.NewAmount(v, DefaultCurrency)
	}
	return raw
}

func (c *Coercer) toArray(raw any, field entity.FieldSchema, depth int) any {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case string:
		items = parseArray(v)
	default:
		return raw
	}
	if field.Items == nil {
		return items
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = c.coerce(it, *field.Items, depth+1)
	}
	return out
}

func parseArray(s string) []any {
	body := StripFence(s)
	if body == "" {
		return []any{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		switch p := parsed.(type) {
		case []any:
			return p
		case map[string]any:
			return []any{p}
		}
	}
	if looksStructured(body) {
		return []any{}
	}

	sep := ""
	switch {
	case strings.Contains(body, ","):
		sep = ","
	case strings.Contains(body, "\n"):
		sep = "\n"
	default:
		return []any{body}
	}
	out := []any{}
	for _, part := range strings.Split(body, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Coercer) toObject(raw any, field entity.FieldSchema, depth int) any {
	var obj map[string]any
	switch v := raw.(type) {
	case map[string]any:
		obj = v
	case string:
		body := StripFence(v)
		if err := json.Unmarshal([]byte(body), &obj); err != nil || obj == nil {
			return map[string]any{"value": v}
		}
	default:
		return raw
	}

	if len(field.Properties) == 0 {
		return obj
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, p := range field.Properties {
		out[p.Name] = c.coerce(obj[p.Name], p, depth+1)
	}
	return out
}

// StripFence returns the body of the first markdown code fence in s, or s
// trimmed when there is none.
func StripFence(s string) string {
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// looksStructured reports whether s opens like a JSON array or object.
func looksStructured(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}
