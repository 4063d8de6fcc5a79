package export

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	defaultMaxSheets = 50
	maxSheetName     = 31
	maxColWidth      = 50
	noHeaderNote     = "Note: This table has no header row"
	headerFill       = "4472C4"
)

// Service renders analysis results as XLSX workbooks and JSON.
type Service struct {
	maxSheets int
	logger    *slog.Logger
}

func NewService(cfg common.ExportConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	maxSheets := cfg.MaxSheets
	if maxSheets <= 0 {
		maxSheets = defaultMaxSheets
	}
	return &Service{maxSheets: maxSheets, logger: logger}
}

// TablesXLSX returns a workbook with one sheet per table: Page_N when the
// page has one table, Page_N_Table_M otherwise. Sheets past the configured
// limit are left out; a workbook without tables gets a No_Data sheet.
func (s *Service) TablesXLSX(ctx context.Context, pages []entity.PageTables) ([]byte, error) {
	start := time.Now()
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sorted := slices.Clone(pages)
	slices.SortStableFunc(sorted, func(a, b entity.PageTables) int { return cmp.Compare(a.Page, b.Page) })

	written := 0
pages:
	for _, p := range sorted {
		for i, t := range p.Tables {
			if written >= s.maxSheets {
				s.logger.Warn("export.xlsx.sheet_limit", "req_id", common.RequestIDFromContext(ctx), "max_sheets", s.maxSheets)
				break pages
			}
			name := fmt.Sprintf("Page_%d", p.Page)
			if len(p.Tables) > 1 {
				name = fmt.Sprintf("Page_%d_Table_%d", p.Page, i+1)
			}
			sheet, err := wb.sheet(name)
			if err != nil {
				return nil, err
			}
			if err := wb.writeTable(sheet, t); err != nil {
				return nil, err
			}
			written++
		}
	}
	if written == 0 {
		sheet, err := wb.sheet("No_Data")
		if err != nil {
			return nil, err
		}
		_ = wb.f.SetCellValue(sheet, "A1", "No tables found in the PDF")
	}

	b, err := wb.bytes()
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok", "req_id", common.RequestIDFromContext(ctx),
		"kind", "tables", "sheets", max(written, 1),
		"elapsed_ms", time.Since(start).Milliseconds())
	return b, nil
}

// ResultXLSX returns a workbook for a template or custom result: a
// key/value sheet for the extracted values plus one sheet per table.
func (s *Service) ResultXLSX(ctx context.Context, result any) ([]byte, error) {
	start := time.Now()
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	var kind string
	switch r := result.(type) {
	case *entity.TemplateResult:
		kind = "template"
		err = wb.writeTemplate(r)
	case *entity.CustomResult:
		kind = "custom"
		err = wb.writeCustom(r, s.maxSheets)
	default:
		return nil, common.NewAppError(common.CodeExport, fmt.Sprintf("cannot export %T as xlsx", result), common.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	b, err := wb.bytes()
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok", "req_id", common.RequestIDFromContext(ctx),
		"kind", kind, "sheets", len(wb.used),
		"elapsed_ms", time.Since(start).Milliseconds())
	return b, nil
}

// workbook tracks sheet names so sanitized names stay unique.
type workbook struct {
	f           *excelize.File
	used        map[string]struct{}
	headerStyle int
	noteStyle   int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, common.NewAppError(common.CodeExport, "xlsx style", err)
	}
	note, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "FF6B6B"}})
	if err != nil {
		_ = f.Close()
		return nil, common.NewAppError(common.CodeExport, "xlsx style", err)
	}
	return &workbook{f: f, used: make(map[string]struct{}), headerStyle: header, noteStyle: note}, nil
}

func (w *workbook) Close() error { return w.f.Close() }

// sheet creates a uniquely named sheet. The default sheet is dropped once
// the first real one exists.
func (w *workbook) sheet(name string) (string, error) {
	name = SanitizeSheetName(name)
	base, n := name, 2
	for {
		if _, taken := w.used[name]; !taken {
			break
		}
		suffix := fmt.Sprintf("_%d", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		n++
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return "", common.NewAppError(common.CodeExport, "xlsx sheet", err)
	}
	if len(w.used) == 0 {
		if name != "Sheet1" {
			_ = w.f.DeleteSheet("Sheet1")
		}
		if idx, err := w.f.GetSheetIndex(name); err == nil && idx >= 0 {
			w.f.SetActiveSheet(idx)
		}
	}
	w.used[name] = struct{}{}
	return name, nil
}

func (w *workbook) setRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

// writeTable writes a header row (styled) or, for tables without a real
// header, a merged note line followed by the data.
func (w *workbook) writeTable(sheet string, t entity.Table) error {
	row := 1
	widths := make([]int, len(t.Headers))
	track := func(values []string) {
		for i, v := range values {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(v))
			}
		}
	}

	if t.HasHeader {
		if err := w.setRow(sheet, row, toAny(t.Headers)); err != nil {
			return common.NewAppError(common.CodeExport, "xlsx header", err)
		}
		end, _ := excelize.CoordinatesToCellName(max(len(t.Headers), 1), row)
		_ = w.f.SetCellStyle(sheet, "A1", end, w.headerStyle)
		track(t.Headers)
	} else {
		_ = w.f.SetCellValue(sheet, "A1", noHeaderNote)
		_ = w.f.SetCellStyle(sheet, "A1", "A1", w.noteStyle)
		if len(t.Headers) > 1 {
			end, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
			_ = w.f.MergeCell(sheet, "A1", end)
		}
	}
	row++

	for _, values := range t.Values() {
		if err := w.setRow(sheet, row, toAny(values)); err != nil {
			return common.NewAppError(common.CodeExport, "xlsx row", err)
		}
		track(values)
		row++
	}

	for i, width := range widths {
		if width == 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		_ = w.f.SetColWidth(sheet, col, col, float64(min(width+2, maxColWidth)))
	}
	return nil
}

func (w *workbook) writeKeyValues(sheet string, pairs [][2]any) error {
	if err := w.setRow(sheet, 1, []any{"Field", "Value"}); err != nil {
		return common.NewAppError(common.CodeExport, "xlsx header", err)
	}
	_ = w.f.SetCellStyle(sheet, "A1", "B1", w.headerStyle)
	for i, p := range pairs {
		if err := w.setRow(sheet, i+2, []any{p[0], p[1]}); err != nil {
			return common.NewAppError(common.CodeExport, "xlsx row", err)
		}
	}
	_ = w.f.SetColWidth(sheet, "A", "A", 28)
	_ = w.f.SetColWidth(sheet, "B", "B", maxColWidth)
	return nil
}

func (w *workbook) writeTemplate(r *entity.TemplateResult) error {
	pairs := [][2]any{
		{"document_type", r.DocumentType},
		{"template_id", r.TemplateID},
		{"extraction_date", r.ExtractionDate},
	}
	pairs = append(pairs, partyPairs("sender", r.Sender)...)
	pairs = append(pairs, partyPairs("recipient", r.Recipient)...)
	pairs = append(pairs, mapPairs("invoice_metadata", r.InvoiceMetadata)...)
	pairs = append(pairs, mapPairs("totals", r.Totals)...)

	sheet, err := w.sheet("Summary")
	if err != nil {
		return err
	}
	if err := w.writeKeyValues(sheet, pairs); err != nil {
		return err
	}

	if len(r.LineItems) == 0 {
		return nil
	}
	items, err := w.sheet("Line_Items")
	if err != nil {
		return err
	}
	return w.writeTable(items, rowsTable(r.LineItemColumns, r.LineItems))
}

func (w *workbook) writeCustom(r *entity.CustomResult, maxSheets int) error {
	pairs := [][2]any{
		{"template_name", r.TemplateName},
		{"description", r.Description},
		{"extraction_date", r.ExtractionDate},
	}
	pairs = append(pairs, mapPairs("data", r.Data)...)

	sheet, err := w.sheet("Data")
	if err != nil {
		return err
	}
	if err := w.writeKeyValues(sheet, pairs); err != nil {
		return err
	}

	names := make([]string, 0, len(r.Tables))
	for name := range r.Tables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		m := r.Tables[name]
		if m == nil || len(w.used) >= maxSheets {
			continue
		}
		sheet, err := w.sheet(name)
		if err != nil {
			return err
		}
		t := entity.Table{HasHeader: true, Headers: m.Headers, Rows: m.Rows, RowCount: m.RowCount, ColCount: m.ColCount}
		if err := w.writeTable(sheet, t); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "xlsx write", err)
	}
	return buf.Bytes(), nil
}

// SanitizeSheetName replaces the characters Excel rejects, cuts the name to
// 31 characters and never returns an empty name.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(truncateRunes(name, maxSheetName))
	if name == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
