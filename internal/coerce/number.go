package coerce

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

var (
	reNonNumeric = regexp.MustCompile(`[^0-9,.\-]`)
	reCurrency   = regexp.MustCompile(`\b(TL|TRY|USD|EUR|GBP|CHF|JPY|CNY)\b`)
)

// DefaultCurrency is assumed when an amount names no currency.
const DefaultCurrency = "TRY"

// ParseNumber reads a localized number. Everything but digits, ',', '.'
// and '-' is dropped. With both separators present the rightmost one is the
// decimal mark, so "1.234,56" and "1,234.56" both read as 1234.56; a lone
// ',' is a decimal mark.
func ParseNumber(s string) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseDecimal is ParseNumber without the float conversion. Money amounts
// keep this exact value.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	clean := reNonNumeric.ReplaceAllString(s, "")
	if clean == "" {
		return decimal.Zero, false
	}

	comma, dot := strings.LastIndex(clean, ","), strings.LastIndex(clean, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case comma >= 0 && dot >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseAmount reads a money value such as "1.245,09 TL" or "1000 USD".
// The first currency code found wins; without one the amount is in TRY.
func ParseAmount(s string) (entity.Amount, bool) {
	upper := strings.ToUpper(s)
	currency := DefaultCurrency
	if m := reCurrency.FindStringSubmatch(upper); m != nil {
		currency = m[1]
	}
	n, ok := ParseDecimal(reCurrency.ReplaceAllString(upper, ""))
	if !ok {
		return entity.Amount{}, false
	}
	return entity.Amount{Amount: n, Currency: currency}, true
}
