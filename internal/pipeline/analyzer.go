// Package pipeline runs the analyses a caller can ask for on one document
// bundle: normalized tables, built-in template extraction and schema-driven
// extraction.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/extract"
	"github.com/joseph-ayodele/docextract/internal/layout"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/tables"
	"github.com/joseph-ayodele/docextract/internal/templates"
)

// AutoTemplate asks Template to detect the document type.
const AutoTemplate = "auto"

// TablesReport is the table analysis of one document.
type TablesReport struct {
	Source     string              `json:"source,omitempty"`
	TableCount int                 `json:"table_count"`
	Pages      []entity.PageTables `json:"-"`
}

// Grouped returns the tables keyed page_N, the shape written to JSON.
func (r TablesReport) Grouped() map[string][]entity.Table {
	out := make(map[string][]entity.Table, len(r.Pages))
	for _, p := range r.Pages {
		key := fmt.Sprintf("page_%d", p.Page)
		out[key] = append(out[key], p.Tables...)
	}
	return out
}

// Analyzer wires the table, template and schema stages. It keeps no
// per-document state.
type Analyzer struct {
	normalizer *tables.Normalizer
	registry   *templates.Registry
	mapper     *templates.Mapper
	extractor  *extract.Extractor
	logger     *slog.Logger
}

// NewAnalyzer builds an Analyzer. gen may be nil; fields that need the
// model then resolve to nil and parties fall back to the regex reader.
func NewAnalyzer(cfg *common.Config, gen llm.Generator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	svc := llm.NewService(gen, logger)
	registry := templates.DefaultRegistry()
	return &Analyzer{
		normalizer: tables.NewNormalizer(cfg.Tables, logger),
		registry:   registry,
		mapper:     templates.NewMapper(registry, llm.NewEntityExtractor(svc, logger), layout.NewSegmenter(), logger),
		extractor:  extract.NewExtractor(svc, cfg.Extract, logger),
		logger:     logger,
	}
}

// Registry exposes the template registry for listing.
func (a *Analyzer) Registry() *templates.Registry { return a.registry }

// Tables normalizes every raw grid of doc, grouped by page.
func (a *Analyzer) Tables(ctx context.Context, doc *entity.Document) TablesReport {
	ctx, rid := common.EnsureRequestID(ctx)
	pages := a.normalizer.BuildPages(ctx, doc.Tables)
	report := TablesReport{Source: doc.Source, Pages: pages, TableCount: len(tables.Flatten(pages))}
	a.logger.Info("pipeline.tables.ok", "req_id", rid, "source", doc.Source, "tables", report.TableCount)
	return report
}

// Detect returns the id of the template doc looks like.
func (a *Analyzer) Detect(ctx context.Context, doc *entity.Document) (string, bool) {
	id, ok := a.registry.Detect(document.FullText(doc))
	a.logger.Info("pipeline.detect", "req_id", common.RequestIDFromContext(ctx),
		"source", doc.Source, "template", id, "detected", ok)
	return id, ok
}

// Template extracts doc with a built-in template. An empty id or "auto"
// detects the template; a document no template matches is a NO_TEMPLATE
// error.
func (a *Analyzer) Template(ctx context.Context, doc *entity.Document, id string) (*entity.TemplateResult, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	text := document.FullText(doc)

	if id == "" || id == AutoTemplate {
		detected, ok := a.registry.Detect(text)
		if !ok {
			bundle := common.SourceFromContext(ctx)
			a.logger.Warn("pipeline.template.undetected", "req_id", rid, "source", doc.Source, "bundle", bundle)
			msg := "could not detect the document type; name a template explicitly"
			if bundle != "" {
				msg = bundle + ": " + msg
			}
			return nil, common.NewAppError(common.CodeNoTemplate, msg, common.ErrNotFound)
		}
		id = detected
	}

	header := document.HeaderPage(doc)
	res, err := a.mapper.Map(ctx, id, templates.Input{
		Text:      text,
		Tables:    tables.Flatten(a.normalizer.BuildPages(ctx, doc.Tables)),
		Fragments: header.Fragments,
		PageWidth: header.Width,
	})
	if err != nil {
		a.logger.Error("pipeline.template.failed", "req_id", rid, "source", doc.Source, "template", id, "err", err)
		return nil, err
	}
	a.logger.Info("pipeline.template.ok", "req_id", rid, "source", doc.Source, "template", id,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// Custom runs a user schema against doc. Field failures never surface as
// errors; they leave the field nil.
func (a *Analyzer) Custom(ctx context.Context, doc *entity.Document, schema *entity.TemplateSchema) entity.CustomResult {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	in := extract.Input{
		Text:    document.FullText(doc),
		Regions: layout.PageRegionTexts(doc.Pages),
	}
	if len(schema.Tables) > 0 {
		in.Tables = tables.Flatten(a.normalizer.BuildPages(ctx, doc.Tables))
	}
	res := a.extractor.Extract(ctx, *schema, in)
	a.logger.Info("pipeline.custom.ok", "req_id", rid, "source", doc.Source,
		"template", schema.TemplateName, "elapsed_ms", time.Since(start).Milliseconds())
	return res
}
