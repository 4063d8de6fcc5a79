package tables

import (
	"cmp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

var totalsKeywords = []string{
	"toplam", "tutar", "total", "kdv", "matrah",
	"vergi", "ödenecek", "iskonto", "mal hizmet",
	"ara toplam", "genel toplam", "subtotal", "grand total",
}

// Each group scores once however many of its spellings occur.
var lineItemKeywords = [][]string{
	{"sıra", "sira", "sequence"},
	{"mal", "product"},
	{"hizmet", "service"},
	{"miktar", "qty", "quantity"},
	{"fiyat", "price"},
	{"tutar", "amount"},
	{"kdv", "vat"},
}

const defaultSchemaMinColumns = 2

type candidate struct {
	score int
	index int
}

// best returns the index of the highest scoring candidate. The sort is stable
// so equal scores keep input order and the earliest wins.
func best(cands []candidate) (int, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})
	return cands[0].index, true
}

// TotalsScore scores a table as a totals (summary) table. Only 2-column
// tables with at least one totals keyword are eligible; others score 0.
func TotalsScore(t entity.Table) int {
	if t.ColCount != 2 {
		return 0
	}
	var cells []string
	for _, h := range t.Headers {
		if h != "" {
			cells = append(cells, h)
		}
	}
	for _, r := range t.Values() {
		for _, c := range r {
			if c != "" {
				cells = append(cells, c)
			}
		}
	}
	hits := textutil.Fold(strings.Join(cells, " ")).CountDistinct(totalsKeywords)
	if hits == 0 {
		return 0
	}
	score := hits * 10
	if t.RowCount >= 3 && t.RowCount <= 15 {
		score += (15 - abs(t.RowCount-8)) * 2
	}
	return score
}

// FindTotals picks the totals table, or nil when no table qualifies.
func FindTotals(tables []entity.Table) *entity.Table {
	var cands []candidate
	for i, t := range tables {
		if s := TotalsScore(t); s > 0 {
			cands = append(cands, candidate{score: s, index: i})
		}
	}
	i, ok := best(cands)
	if !ok {
		return nil
	}
	t := tables[i]
	return &t
}

// LineItemsScore scores a table as the main product/service table.
func LineItemsScore(t entity.Table) int {
	score := 0
	if t.HasHeader {
		score += 10
	}
	if len(t.Headers) > 0 {
		folded := textutil.Fold(strings.Join(t.Headers, " "))
		for _, group := range lineItemKeywords {
			if folded.ContainsAny(group...) {
				score += 5
			}
		}
	}
	if t.RowCount >= 3 && t.RowCount <= 100 {
		score += min(t.RowCount, 20)
	}
	if t.ColCount >= 5 && t.ColCount <= 15 {
		score += t.ColCount * 2
	}
	return score
}

// FindLineItems picks the line-items table, or nil for no tables.
func FindLineItems(tables []entity.Table) *entity.Table {
	cands := make([]candidate, 0, len(tables))
	for i, t := range tables {
		cands = append(cands, candidate{score: LineItemsScore(t), index: i})
	}
	i, ok := best(cands)
	if !ok {
		return nil
	}
	t := tables[i]
	return &t
}

// MatchSchema returns the first table wide enough for ts whose headers and
// first three rows contain at least half of its keywords.
func MatchSchema(tables []entity.Table, ts entity.TableSchema) *entity.TableMatch {
	minCols := ts.MinColumns
	if minCols <= 0 {
		minCols = defaultSchemaMinColumns
	}
	for _, t := range tables {
		if t.ColCount < minCols {
			continue
		}
		parts := append([]string{}, t.Headers...)
		for i, r := range t.Values() {
			if i == 3 {
				break
			}
			parts = append(parts, r...)
		}
		folded := textutil.Fold(strings.Join(parts, " "))
		hits := 0
		for _, kw := range ts.Keywords {
			if folded.Contains(strings.ToLower(kw)) {
				hits++
			}
		}
		if float64(hits) >= 0.5*float64(len(ts.Keywords)) {
			return &entity.TableMatch{
				Headers:  t.Headers,
				Rows:     t.Rows,
				RowCount: t.RowCount,
				ColCount: t.ColCount,
			}
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
