package export

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// WriteJSON encodes v with two-space indentation. Non-ASCII text is written
// as is.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return common.NewAppError(common.CodeExport, "json encode", err)
	}
	return nil
}

// SaveJSON writes v as JSON to path, creating parent directories.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return common.NewAppError(common.CodeExport, "create output dir", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return common.NewAppError(common.CodeExport, "create output file", err)
	}
	if err := WriteJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return common.NewAppError(common.CodeExport, "close output file", err)
	}
	return nil
}

// SaveFile writes data to path, creating parent directories.
func SaveFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return common.NewAppError(common.CodeExport, "create output dir", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return common.NewAppError(common.CodeExport, "write output file", err)
	}
	return nil
}

func partyPairs(prefix string, p entity.Party) [][2]any {
	var typ *string
	if p.TaxIDType != nil {
		s := string(*p.TaxIDType)
		typ = &s
	}
	return [][2]any{
		{prefix + ".name", deref(p.Name)},
		{prefix + ".address", deref(p.Address)},
		{prefix + ".tax_id", deref(p.TaxID)},
		{prefix + ".tax_id_type", deref(typ)},
		{prefix + ".tax_office", deref(p.TaxOffice)},
	}
}

// mapPairs flattens one level of a result map into prefixed rows, sorted by key.
func mapPairs(prefix string, m map[string]any) [][2]any {
	out := make([][2]any, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, [2]any{prefix + "." + k, cellValue(m[k])})
	}
	return out
}

// cellValue renders a result value for a single cell. Amounts become
// "1234.56 TRY"; nested values are written as compact JSON.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case string, bool, float64, int:
		return x
	case entity.Amount:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rowsTable rebuilds a table from header-keyed rows. Without known columns
// the keys are taken in sorted order, first row first.
func rowsTable(columns []string, rows []entity.Row) entity.Table {
	headers := slices.Clone(columns)
	if len(headers) == 0 {
		seen := make(map[string]struct{})
		for _, r := range rows {
			for _, k := range slices.Sorted(maps.Keys(r)) {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					headers = append(headers, k)
				}
			}
		}
	}
	return entity.Table{
		HasHeader: true,
		Headers:   headers,
		Rows:      rows,
		RowCount:  len(rows),
		ColCount:  len(headers),
	}
}
