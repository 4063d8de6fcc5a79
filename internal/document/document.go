// Package document reads the JSON bundle produced by the PDF layer: page
// text, positioned fragments and raw table grids.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const defaultMaxPages = 100

// Loader decodes bundles and enforces the page cap.
type Loader struct {
	maxPages int
	logger   *slog.Logger
}

func NewLoader(maxPages int, logger *slog.Logger) *Loader {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{maxPages: maxPages, logger: logger}
}

// IsBundle reports whether path has a bundle extension. Result files written
// by a previous run are not bundles.
func IsBundle(path string) bool {
	if strings.HasSuffix(strings.ToLower(path), constants.ResultSuffix) {
		return false
	}
	_, ok := constants.BundleExtensions[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// Load reads the bundle at path. Source defaults to the file name.
func (l *Loader) Load(ctx context.Context, path string) (*entity.Document, error) {
	if !IsBundle(path) {
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("not a document bundle: %s", filepath.Base(path)), common.ErrInvalidInput)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "open bundle", err)
	}
	defer f.Close()

	doc, err := l.Decode(ctx, f)
	if err != nil {
		return nil, err
	}
	if doc.Source == "" {
		doc.Source = filepath.Base(path)
	}
	return doc, nil
}

// Decode reads one bundle from r. A bundle without pages is invalid input.
// Pages past the cap are dropped together with their tables.
func (l *Loader) Decode(ctx context.Context, r io.Reader) (*entity.Document, error) {
	var doc entity.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "decode bundle",
			fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	if len(doc.Pages) == 0 {
		return nil, common.NewAppError(common.CodeInvalidInput, "bundle has no pages", common.ErrInvalidInput)
	}

	for i := range doc.Pages {
		if doc.Pages[i].Number <= 0 {
			doc.Pages[i].Number = i + 1
		}
	}
	if len(doc.Pages) > l.maxPages {
		l.logger.Warn("document.pages.truncated", "req_id", common.RequestIDFromContext(ctx),
			"source", doc.Source, "pages", len(doc.Pages), "max_pages", l.maxPages)
		doc.Pages = doc.Pages[:l.maxPages]
		last := doc.Pages[len(doc.Pages)-1].Number
		kept := doc.Tables[:0]
		for _, t := range doc.Tables {
			if t.Page <= last {
				kept = append(kept, t)
			}
		}
		doc.Tables = kept
	}
	return &doc, nil
}

// FullText joins the page texts with a blank line and repairs the encoding.
func FullText(doc *entity.Document) string {
	parts := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		parts = append(parts, p.Text)
	}
	return textutil.CleanEncoding(strings.Join(parts, "\n\n"))
}

// HeaderPage returns the first page, where entity blocks and regions are read.
func HeaderPage(doc *entity.Document) entity.Page {
	if len(doc.Pages) == 0 {
		return entity.Page{}
	}
	return doc.Pages[0]
}
