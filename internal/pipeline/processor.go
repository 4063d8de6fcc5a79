package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
)

// Processor loads a bundle, analyzes it and writes the result next to the
// configured output directory. With a schema it runs schema extraction,
// otherwise template extraction.
type Processor struct {
	Logger   *slog.Logger
	Loader   *document.Loader
	Analyzer *Analyzer
	Template string
	Schema   *entity.TemplateSchema
	OutDir   string
}

func NewProcessor(logger *slog.Logger, loader *document.Loader, analyzer *Analyzer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Loader: loader, Analyzer: analyzer, Template: AutoTemplate}
}

// OutputPath returns where the result for the bundle at path is written.
// Without an output directory the result sits beside the bundle.
func (p *Processor) OutputPath(path string) string {
	dir := p.OutDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+constants.ResultSuffix)
}

// Analyze runs the configured analysis on a loaded document.
func (p *Processor) Analyze(ctx context.Context, doc *entity.Document) (any, error) {
	if p.Schema != nil {
		res := p.Analyzer.Custom(ctx, doc, p.Schema)
		return &res, nil
	}
	return p.Analyzer.Template(ctx, doc, p.Template)
}

// ProcessFile loads the bundle at path, analyzes it and saves the JSON
// result. It returns the result file's path.
func (p *Processor) ProcessFile(ctx context.Context, path string) (string, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	ctx = common.WithSource(ctx, path)
	start := time.Now()

	doc, err := p.Loader.Load(ctx, path)
	if err != nil {
		p.Logger.Error("processor.load.failed", "req_id", rid, "path", path, "err", err)
		return "", err
	}
	p.Logger.Info("processor.load.ok", "req_id", rid, "path", path,
		"pages", len(doc.Pages), "tables", len(doc.Tables))

	res, err := p.Analyze(ctx, doc)
	if err != nil {
		p.Logger.Error("processor.analyze.failed", "req_id", rid, "path", path, "err", err)
		return "", err
	}

	out := p.OutputPath(path)
	if err := export.SaveJSON(out, res); err != nil {
		p.Logger.Error("processor.save.failed", "req_id", rid, "path", out, "err", err)
		return "", err
	}
	p.Logger.Info("processor.ok", "req_id", rid, "path", path, "out", out,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
