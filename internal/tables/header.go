package tables

import (
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

// label stems that mark the first cell of a key-value table
var kvIndicators = []string{
	"tarih", "fatura", "no", "tutar", "toplam", "ödeme", "kdv",
	"matrah", "vergi", "iskonto", "date", "total", "amount",
}

var headerKeywords = []string{
	"sıra", "sira", "no", "ad", "soyad", "isim", "name",
	"miktar", "adet", "quantity", "birim", "fiyat", "price",
	"ürün", "product", "hizmet", "açıklama", "description",
	"kategori", "category", "kod", "code", "durum", "status",
}

// typeSampleRows bounds how many data rows feed the per-column type vote.
const typeSampleRows = 5

// DetectHeader reports whether the first row of grid names its columns.
// Ambiguous or malformed grids yield false.
func DetectHeader(grid entity.RawGrid) bool {
	if len(grid) < 2 || len(grid[0]) == 0 {
		return false
	}
	first := grid[0]

	if isKeyValueGrid(grid) {
		return false
	}

	width := len(first)
	firstTypes := make([]CellType, width)
	for i, c := range first {
		firstTypes[i] = ClassifyCell(c)
	}

	columnTypes := make([][]CellType, width)
	data := grid[1:]
	if len(data) > typeSampleRows {
		data = data[:typeSampleRows]
	}
	for _, row := range data {
		if len(row) != width {
			continue
		}
		for i, c := range row {
			columnTypes[i] = append(columnTypes[i], ClassifyCell(c))
		}
	}

	mismatches := 0
	for i := 0; i < width; i++ {
		if len(columnTypes[i]) == 0 {
			continue
		}
		mode := modalType(columnTypes[i])
		if firstTypes[i] == CellText && (mode == CellNumber || mode == CellDate) {
			mismatches++
		}
	}
	if width >= 3 && float64(mismatches) > float64(width)*0.5 {
		return true
	}
	// A 2-column grid that survived the key-value check is headered when
	// its first row is all labels and a column turns numeric below it.
	if width == 2 && mismatches > 0 && firstTypes[0] == CellText && firstTypes[1] == CellText {
		return true
	}

	if width >= 3 {
		var parts []string
		for _, c := range first {
			if c != "" {
				parts = append(parts, c)
			}
		}
		if textutil.Fold(strings.Join(parts, " ")).CountDistinct(headerKeywords) >= 2 {
			return true
		}
	}
	return false
}

// isKeyValueGrid recognizes "Label: | value" tables, which never carry a header.
func isKeyValueGrid(grid entity.RawGrid) bool {
	for _, row := range grid {
		if len(row) != 2 {
			return false
		}
	}

	colons := 0
	for _, row := range grid {
		if strings.HasSuffix(strings.TrimSpace(row[0]), ":") {
			colons++
		}
	}
	if float64(colons) >= float64(len(grid))*0.7 {
		return true
	}

	for _, row := range grid {
		if strings.TrimSpace(row[0]) == "" || strings.TrimSpace(row[1]) == "" {
			return false
		}
	}
	if len(grid) <= 2 {
		return false
	}
	return textutil.Fold(strings.TrimSpace(grid[0][0])).ContainsAny(kvIndicators...)
}

// modalType returns the most frequent type; ties go to the type seen first.
func modalType(types []CellType) CellType {
	counts := make(map[CellType]int, 4)
	for _, t := range types {
		counts[t]++
	}
	best := types[0]
	for _, t := range types {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}
