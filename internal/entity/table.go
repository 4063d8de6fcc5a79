package entity

// RawGrid is a table as produced by the table-geometry layer: rows of cell
// strings. Row widths may differ; such rows are treated as malformed.
type RawGrid [][]string

// PageGrid is a raw grid tagged with the 1-based page it was found on.
type PageGrid struct {
	Page int     `json:"page"`
	Rows RawGrid `json:"rows"`
}

// Row maps a column header to the cell value in that column.
type Row map[string]string

// Table is a normalized grid. len(Headers) == ColCount and every row holds
// exactly ColCount entries. Rows keep the original order.
type Table struct {
	HasHeader bool     `json:"has_header"`
	Headers   []string `json:"headers"`
	Rows      []Row    `json:"rows"`
	RowCount  int      `json:"row_count"`
	ColCount  int      `json:"col_count"`
	Note      string   `json:"note,omitempty"`
}

// Values returns the rows as cell slices in header order.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = r[h]
		}
		out = append(out, cells)
	}
	return out
}

// PageTables groups normalized tables by page.
type PageTables struct {
	Page   int     `json:"page"`
	Tables []Table `json:"tables"`
}

// TableMatch is the slice of a table reported for a custom table schema.
type TableMatch struct {
	Headers  []string `json:"headers"`
	Rows     []Row    `json:"rows"`
	RowCount int      `json:"row_count"`
	ColCount int      `json:"col_count"`
}
