package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/constants"
)

// Amount is a money value with its currency code.
type Amount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewAmount builds an Amount from a float.
func NewAmount(v float64, currency string) Amount {
	return Amount{Amount: decimal.NewFromFloat(v), Currency: currency}
}

// String renders the amount with two decimals, e.g. "1200.00 TL".
func (a Amount) String() string {
	return a.Amount.StringFixed(2) + " " + a.Currency
}

// Equal reports whether a and b are the same value in the same currency,
// whatever the scale of either amount.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Amount.Equal(b.Amount)
}

// MarshalJSON writes the amount as a JSON number with no rounding.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	}{json.Number(a.Amount.String()), a.Currency})
}

// Party is the sender or recipient of a document. Nil pointers mean the
// value was not found.
type Party struct {
	RawText   *string              `json:"raw_text"`
	Name      *string              `json:"name"`
	Address   *string              `json:"address"`
	TaxID     *string              `json:"tax_id"`
	TaxIDType *constants.TaxIDType `json:"tax_id_type"`
	TaxOffice *string              `json:"tax_office"`
}

// TemplateResult is the output of a built-in template extraction.
type TemplateResult struct {
	DocumentType    string         `json:"document_type"`
	TemplateID      string         `json:"template_id"`
	ExtractionDate  string         `json:"extraction_date"`
	Sender          Party          `json:"sender"`
	Recipient       Party          `json:"recipient"`
	InvoiceMetadata map[string]any `json:"invoice_metadata"`
	Totals          map[string]any `json:"totals"`
	LineItems       []Row          `json:"line_items"`
	// LineItemColumns keeps the column order the rows' maps lose.
	LineItemColumns []string       `json:"line_item_columns,omitempty"`
}

// CustomResult is the output of a schema-driven extraction. Tables is nil
// when the schema defines no tables.
type CustomResult struct {
	TemplateName   string                 `json:"template_name"`
	Description    string                 `json:"description,omitempty"`
	ExtractionDate string                 `json:"extraction_date"`
	Data           map[string]any         `json:"data"`
	Tables         map[string]*TableMatch `json:"tables,omitempty"`
}

// TemplateSummary is one entry of the template listing.
type TemplateSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
