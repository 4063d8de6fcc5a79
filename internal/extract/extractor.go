// Package extract runs user-defined template schemas against a document:
// every field is located by its method and coerced into its declared type,
// and every table schema picks one of the normalized tables.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docextract/internal/coerce"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/match"
	"github.com/joseph-ayodele/docextract/internal/tables"
)

// Input is what one schema run reads from a document.
type Input struct {
	Text    string
	Regions map[string]string
	Tables  []entity.Table
}

// Extractor resolves schema fields. It holds no per-document state and is
// safe for concurrent use.
type Extractor struct {
	patterns *match.PatternMatcher
	fuzzy    *match.FuzzyMatcher
	gen      *match.GenerativeMatcher
	coercer  *coerce.Coercer
	logger   *slog.Logger
	now      func() time.Time
}

// NewExtractor wires the three matchers. gen may be nil, in which case
// every llm field resolves to nil.
func NewExtractor(gen match.FieldGenerator, cfg common.ExtractConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		patterns: match.NewPatternMatcher(logger),
		fuzzy:    match.NewFuzzyMatcher(),
		gen:      match.NewGenerativeMatcher(gen, cfg.TextWindow, cfg.ArrayTextWindow, logger),
		coercer:  coerce.New(cfg.MaxSchemaDepth),
		logger:   logger,
		now:      time.Now,
	}
}

// ExtractField locates and coerces one field. A field that cannot be
// resolved is nil; nothing here returns an error or panics to the caller.
func (e *Extractor) ExtractField(ctx context.Context, field entity.FieldSchema, text string, regions map[string]string) (value any) {
	rid := common.RequestIDFromContext(ctx)
	method := entity.MethodOf(field.Extraction())
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.field.panic", "req_id", rid, "field", field.Name, "method", method, "panic", r)
			value = nil
		}
	}()

	var (
		raw   string
		found bool
	)
	switch x := field.Extraction().(type) {
	case entity.RegexExtraction:
		raw, found = e.patterns.Match(x.Patterns, text)
	case entity.FuzzyExtraction:
		raw, found = e.fuzzy.Match(x.Keywords, text)
	case entity.LLMExtraction:
		raw, found = e.gen.Match(ctx, field, text, regions)
	}
	if !found {
		e.logger.Debug("extract.field.missing", "req_id", rid, "field", field.Name, "method", method)
		return nil
	}
	value = e.coercer.Coerce(raw, field)
	e.logger.Debug("extract.field.ok", "req_id", rid, "field", field.Name, "method", method, "null", value == nil)
	return value
}

// Extract runs a whole schema. Tables is only set when the schema defines
// table selectors; an unmatched selector maps to nil.
func (e *Extractor) Extract(ctx context.Context, schema entity.TemplateSchema, in Input) entity.CustomResult {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	e.logger.Info("extract.custom.start", "req_id", rid, "template", schema.TemplateName,
		"fields", len(schema.Fields), "tables", len(schema.Tables))

	res := entity.CustomResult{
		TemplateName:   schema.TemplateName,
		Description:    schema.Description,
		ExtractionDate: e.now().Format(time.RFC3339),
		Data:           make(map[string]any, len(schema.Fields)),
	}

	found := 0
	for _, f := range schema.Fields {
		if err := ctx.Err(); err != nil {
			res.Data[f.Name] = nil
			continue
		}
		v := e.ExtractField(ctx, f, in.Text, in.Regions)
		if v != nil {
			found++
		}
		res.Data[f.Name] = v
	}

	if len(schema.Tables) > 0 {
		res.Tables = make(map[string]*entity.TableMatch, len(schema.Tables))
		for _, ts := range schema.Tables {
			res.Tables[ts.Name] = tables.MatchSchema(in.Tables, ts)
		}
	}

	e.logger.Info("extract.custom.ok", "req_id", rid, "template", schema.TemplateName,
		"found", found, "missing", len(schema.Fields)-found,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res
}
