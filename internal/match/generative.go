package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const (
	defaultTextWindow      = 3000
	defaultArrayTextWindow = 6000
)

// FieldGenerator asks a generative model for one value. An empty answer
// means the value was not found.
type FieldGenerator interface {
	ExtractField(ctx context.Context, text, prompt string) (string, error)
}

// GenerativeMatcher delegates a field to the generative model.
type GenerativeMatcher struct {
	gen         FieldGenerator
	window      int
	arrayWindow int
	logger      *slog.Logger
}

// NewGenerativeMatcher builds a matcher. Non-positive windows fall back to
// 3000 runes, 6000 for array fields.
func NewGenerativeMatcher(gen FieldGenerator, window, arrayWindow int, logger *slog.Logger) *GenerativeMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = defaultTextWindow
	}
	if arrayWindow <= 0 {
		arrayWindow = defaultArrayTextWindow
	}
	return &GenerativeMatcher{gen: gen, window: window, arrayWindow: arrayWindow, logger: logger}
}

// Match returns the model's raw answer for field. Every failure, including
// an unavailable model, is reported as not found.
func (m *GenerativeMatcher) Match(ctx context.Context, field entity.FieldSchema, text string, regions map[string]string) (string, bool) {
	if m.gen == nil {
		return "", false
	}
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	prompt := field.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = BuildPrompt(field)
	}
	input := m.SelectText(field, text, regions)

	out, err := m.gen.ExtractField(ctx, input, prompt)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, common.ErrModelUnavailable) {
			level = slog.LevelDebug
		}
		m.logger.Log(ctx, level, "match.llm.failed", "req_id", rid, "field", field.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", false
	}
	out = strings.TrimSpace(out)
	m.logger.Debug("match.llm.ok", "req_id", rid, "field", field.Name, "found", out != "",
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, out != ""
}

// SelectText picks the named region when the field has one and it holds
// text, else a prefix of the full text.
func (m *GenerativeMatcher) SelectText(field entity.FieldSchema, text string, regions map[string]string) string {
	if field.Region != "" {
		if r, ok := regions[field.Region]; ok && strings.TrimSpace(r) != "" {
			return r
		}
	}
	window := m.window
	if field.FieldType() == constants.FieldTypeArray {
		window = m.arrayWindow
	}
	return textutil.Truncate(text, window)
}

// BuildPrompt writes an instruction for field from its name, description
// and nested properties.
func BuildPrompt(field entity.FieldSchema) string {
	desc := ""
	if d := strings.TrimSpace(field.Description); d != "" {
		desc = fmt.Sprintf(" (%s)", d)
	}

	switch field.FieldType() {
	case constants.FieldTypeObject:
		if len(field.Properties) > 0 {
			return fmt.Sprintf("Extract '%s' data%s as JSON with these fields: %s",
				field.Name, desc, propertyNames(field.Properties))
		}
	case constants.FieldTypeArray:
		if field.Items != nil && len(field.Items.Properties) > 0 {
			return fmt.Sprintf("Extract all '%s' items%s as a JSON list of objects with these fields: %s",
				field.Name, desc, propertyNames(field.Items.Properties))
		}
		return fmt.Sprintf("Extract all '%s' items%s as a list", field.Name, desc)
	}
	return fmt.Sprintf("Extract '%s'%s", field.Name, desc)
}

func propertyNames(props []entity.FieldSchema) string {
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
