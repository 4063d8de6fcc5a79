// Package tables turns raw cell grids into typed tables and picks out the
// tables that play a known role in a document (totals, line items).
package tables

import (
	"strings"
	"unicode"
)

// CellType is the coarse content class of one cell.
type CellType string

const (
	CellEmpty  CellType = "empty"
	CellNumber CellType = "number"
	CellDate   CellType = "date"
	CellText   CellType = "text"
)

// ClassifyCell buckets a cell into empty, number, date or text.
//
// Numbers may carry thousands commas, up to two dots and a single sign.
// Anything with '/' or '-' and at least one all-digit part counts as a date.
func ClassifyCell(cell string) CellType {
	s := strings.TrimSpace(cell)
	if s == "" {
		return CellEmpty
	}

	stripped := strings.ReplaceAll(s, ",", "")
	stripped = strings.Replace(stripped, ".", "", 1)
	stripped = strings.Replace(stripped, "-", "", 1)
	stripped = strings.Replace(stripped, "+", "", 1)

	if isDigits(strings.Replace(stripped, ".", "", 1)) {
		return CellNumber
	}
	if stripped != "" && (stripped[0] == '-' || stripped[0] == '+') &&
		isDigits(strings.Replace(stripped[1:], ".", "", 1)) {
		return CellNumber
	}

	if strings.ContainsAny(cell, "/-") {
		parts := strings.Split(strings.ReplaceAll(cell, "/", "-"), "-")
		if len(parts) >= 2 {
			for _, p := range parts {
				if isDigits(p) {
					return CellDate
				}
			}
		}
	}
	return CellText
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
