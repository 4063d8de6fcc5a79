package tables

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	NoteEmpty          = "Empty table"
	NoteInvalidHeaders = "Table had duplicate or invalid column names, generic names were assigned"
	NoteNoHeader       = "Table has no header row, generic column names were assigned"
)

// GenericHeaders returns Column_1..Column_n.
func GenericHeaders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Column_%d", i+1)
	}
	return out
}

// Normalize converts a raw grid into a Table. It trims every cell, drops
// empty rows and columns, and falls back to generic headers whenever the
// header row is blank or repeats a name. It never fails: degenerate input
// yields an empty-table record.
func Normalize(grid entity.RawGrid, hasHeader bool) entity.Table {
	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	if width == 0 {
		return emptyTable()
	}

	var headers []string
	body := grid
	if hasHeader {
		headers = padTrim(grid[0], width)
		body = grid[1:]
	}

	cells := make([][]string, 0, len(body))
	for _, row := range body {
		r := padTrim(row, width)
		if !allEmpty(r) {
			cells = append(cells, r)
		}
	}
	if len(cells) == 0 {
		return emptyTable()
	}

	keep := make([]int, 0, width)
	for col := 0; col < width; col++ {
		for _, r := range cells {
			if r[col] != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	if len(keep) == 0 {
		return emptyTable()
	}

	note := ""
	if hasHeader {
		headers = pick(headers, keep)
		if invalidHeaders(headers) {
			hasHeader = false
			note = NoteInvalidHeaders
		}
	} else {
		note = NoteNoHeader
	}
	if !hasHeader {
		headers = GenericHeaders(len(keep))
	}

	rows := make([]entity.Row, 0, len(cells))
	for _, r := range cells {
		vals := pick(r, keep)
		row := make(entity.Row, len(headers))
		for i, h := range headers {
			row[h] = vals[i]
		}
		rows = append(rows, row)
	}

	return entity.Table{
		HasHeader: hasHeader,
		Headers:   headers,
		Rows:      rows,
		RowCount:  len(rows),
		ColCount:  len(headers),
		Note:      note,
	}
}

func emptyTable() entity.Table {
	return entity.Table{Rows: []entity.Row{}, Note: NoteEmpty}
}

func padTrim(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

func pick(row []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func invalidHeaders(headers []string) bool {
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		switch strings.ToLower(h) {
		case "", "none", "nan", "null":
			return true
		}
		if _, dup := seen[h]; dup {
			return true
		}
		seen[h] = struct{}{}
	}
	return false
}

// Normalizer applies the size filters and header policy to every raw grid
// of a document.
type Normalizer struct {
	minRows int
	minCols int
	mode    constants.HeaderMode
	logger  *slog.Logger
}

// NewNormalizer builds a Normalizer from the table settings.
func NewNormalizer(cfg common.TablesConfig, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	mode := cfg.HeaderMode
	if mode == "" {
		mode = constants.HeaderModeAuto
	}
	return &Normalizer{
		minRows: max(cfg.MinRows, 1),
		minCols: max(cfg.MinCols, 1),
		mode:    mode,
		logger:  logger,
	}
}

// Build normalizes one grid. The bool is false when the grid is too small
// before or after cleanup.
func (n *Normalizer) Build(grid entity.RawGrid) (entity.Table, bool) {
	if len(grid) < n.minRows {
		return entity.Table{}, false
	}

	var hasHeader bool
	switch n.mode {
	case constants.HeaderModeAlways:
		hasHeader = true
	case constants.HeaderModeNever:
		hasHeader = false
	default:
		hasHeader = DetectHeader(grid)
	}

	t := Normalize(grid, hasHeader)
	if t.ColCount < n.minCols {
		return entity.Table{}, false
	}
	return t, true
}

// BuildPages normalizes all grids, grouped by page in first-seen page order.
// Pages whose grids are all filtered out do not appear.
func (n *Normalizer) BuildPages(ctx context.Context, grids []entity.PageGrid) []entity.PageTables {
	rid := common.RequestIDFromContext(ctx)
	var out []entity.PageTables
	index := make(map[int]int)

	for i, g := range grids {
		t, ok := n.Build(g.Rows)
		if !ok {
			n.logger.Debug("tables.build.skip", "req_id", rid, "page", g.Page, "grid", i, "rows", len(g.Rows))
			continue
		}
		pos, seen := index[g.Page]
		if !seen {
			pos = len(out)
			index[g.Page] = pos
			out = append(out, entity.PageTables{Page: g.Page})
		}
		out[pos].Tables = append(out[pos].Tables, t)
	}

	total := 0
	for _, p := range out {
		total += len(p.Tables)
	}
	n.logger.Info("tables.build.ok", "req_id", rid, "grids", len(grids), "tables", total, "pages", len(out))
	return out
}

// Flatten returns all tables of all pages in document order.
func Flatten(pages []entity.PageTables) []entity.Table {
	var out []entity.Table
	for _, p := range pages {
		out = append(out, p.Tables...)
	}
	return out
}
