package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

type stubGenerator struct {
	answers map[string]string
	err     error
	calls   int
}

func (s *stubGenerator) ExtractField(_ context.Context, _ string, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for k, v := range s.answers {
		if strings.Contains(prompt, k) {
			return v, nil
		}
	}
	return "", nil
}

const invoiceText = `ÖRNEK TEKSTİL LTD. ŞTİ.
Fatura No: ABC2024000000123
Fatura Tarihi: 15-03-2024
Ödenecek Tutar: 1.234,56 TL
E-Fatura: Evet
Sipariş No - 998877`

func newTestExtractor(gen *stubGenerator) *Extractor {
	e := NewExtractor(gen, common.ExtractConfig{TextWindow: 3000, ArrayTextWindow: 6000, MaxSchemaDepth: 8}, nil)
	e.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractField_Methods(t *testing.T) {
	gen := &stubGenerator{answers: map[string]string{
		"seller": "ÖRNEK TEKSTİL LTD. ŞTİ.",
		"codes":  "```json\n[\"A\", \"B\"]\n```",
	}}
	e := newTestExtractor(gen)
	ctx := context.Background()

	tests := []struct {
		name  string
		field entity.FieldSchema
		want  any
	}{
		{"regex string", entity.FieldSchema{Name: "no", Method: "regex", Patterns: []string{`fatura no:\s*(\w+)`}}, "ABC2024000000123"},
		{"regex number", entity.FieldSchema{Name: "total", Type: "number", Method: "regex", Patterns: []string{`ödenecek tutar:\s*([\d.,]+)`}}, 1234.56},
		{"regex boolean", entity.FieldSchema{Name: "efatura", Type: "boolean", Method: "regex", Patterns: []string{`e-fatura:\s*(\w+)`}}, true},
		{"regex invalid then valid", entity.FieldSchema{Name: "no", Method: "regex", Patterns: []string{`(`, `fatura no:\s*(\w+)`}}, "ABC2024000000123"},
		{"regex miss", entity.FieldSchema{Name: "iban", Method: "regex", Patterns: []string{`iban:\s*(\S+)`}}, nil},
		{"fuzzy", entity.FieldSchema{Name: "order", Method: "fuzzy", Keywords: []string{"Sipariş No"}}, "998877"},
		{"llm default method", entity.FieldSchema{Name: "seller"}, "ÖRNEK TEKSTİL LTD. ŞTİ."},
		{"llm array", entity.FieldSchema{Name: "codes", Type: "array", Method: "llm"}, []any{"A", "B"}},
		{"llm not found", entity.FieldSchema{Name: "buyer", Method: "llm"}, nil},
		{"unknown method dispatches to llm", entity.FieldSchema{Name: "seller", Method: "magic"}, "ÖRNEK TEKSTİL LTD. ŞTİ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractField(ctx, tt.field, invoiceText, nil))
		})
	}
}

func TestExtractField_NumberParseFailureIsNil(t *testing.T) {
	e := newTestExtractor(&stubGenerator{})
	f := entity.FieldSchema{Name: "n", Type: "number", Method: "regex", Patterns: []string{`fatura no:\s*(\w+)`}}
	// "ABC2024000000123" strips to digits only, so it parses
	assert.Equal(t, 2024000000123.0, e.ExtractField(context.Background(), f, invoiceText, nil))

	f.Patterns = []string{`(E-Fatura)`}
	assert.Nil(t, e.ExtractField(context.Background(), f, invoiceText, nil))
}

func TestExtractField_ModelFailureIsNil(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	e := newTestExtractor(gen)
	assert.Nil(t, e.ExtractField(context.Background(), entity.FieldSchema{Name: "seller"}, invoiceText, nil))
	assert.Equal(t, 1, gen.calls)

	unavailable := &stubGenerator{err: common.ErrModelUnavailable}
	e = newTestExtractor(unavailable)
	assert.Nil(t, e.ExtractField(context.Background(), entity.FieldSchema{Name: "seller"}, invoiceText, nil))
}

func TestExtractField_NilGenerator(t *testing.T) {
	e := NewExtractor(nil, common.ExtractConfig{}, nil)
	assert.Nil(t, e.ExtractField(context.Background(), entity.FieldSchema{Name: "seller"}, invoiceText, nil))
}

func TestExtract_Result(t *testing.T) {
	gen := &stubGenerator{answers: map[string]string{"seller": "ÖRNEK TEKSTİL LTD. ŞTİ."}}
	e := newTestExtractor(gen)

	schema := entity.TemplateSchema{
		TemplateName: "fatura",
		Description:  "basic invoice",
		Fields: []entity.FieldSchema{
			{Name: "seller"},
			{Name: "invoice_no", Method: "regex", Patterns: []string{`fatura no:\s*(\w+)`}},
			{Name: "iban", Method: "regex", Patterns: []string{`iban:\s*(\S+)`}},
		},
		Tables: []entity.TableSchema{
			{Name: "items", Keywords: []string{"mal hizmet", "miktar"}},
			{Name: "bank", Keywords: []string{"iban"}},
		},
	}
	in := Input{
		Text: invoiceText,
		Tables: []entity.Table{{
			HasHeader: true,
			Headers:   []string{"Mal Hizmet", "Miktar"},
			Rows:      []entity.Row{{"Mal Hizmet": "Kumaş", "Miktar": "2"}},
			RowCount:  1,
			ColCount:  2,
		}},
	}

	res := e.Extract(context.Background(), schema, in)
	assert.Equal(t, "fatura", res.TemplateName)
	assert.Equal(t, "basic invoice", res.Description)
	assert.Equal(t, "2024-03-15T10:00:00Z", res.ExtractionDate)
	assert.Equal(t, map[string]any{
		"seller":     "ÖRNEK TEKSTİL LTD. ŞTİ.",
		"invoice_no": "ABC2024000000123",
		"iban":       nil,
	}, res.Data)
	require.Len(t, res.Tables, 2)
	require.NotNil(t, res.Tables["items"])
	assert.Equal(t, 2, res.Tables["items"].ColCount)
	assert.Nil(t, res.Tables["bank"])
}

func TestExtract_NoTablesKey(t *testing.T) {
	e := newTestExtractor(&stubGenerator{})
	res := e.Extract(context.Background(), entity.TemplateSchema{
		TemplateName: "x",
		Fields:       []entity.FieldSchema{{Name: "a", Method: "regex", Patterns: []string{`zzz`}}},
	}, Input{Text: "abc"})
	assert.Nil(t, res.Tables)
	assert.Contains(t, res.Data, "a")
}

func TestExtract_CancelledContext(t *testing.T) {
	gen := &stubGenerator{answers: map[string]string{"seller": "X"}}
	e := newTestExtractor(gen)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Extract(ctx, entity.TemplateSchema{TemplateName: "x", Fields: []entity.FieldSchema{{Name: "seller"}}}, Input{Text: "abc"})
	assert.Nil(t, res.Data["seller"])
	assert.Zero(t, gen.calls)
}

const yamlSchema = `
template_name: fatura
description: basic invoice
fields:
  - name: invoice_no
    method: regex
    patterns:
      - 'fatura no:\s*(\w+)'
  - name: seller
    type: object
    region: top_left
    properties:
      - name: name
      - name: tax_no
        type: number
  - name: items
    type: array
    items:
      name: item
      type: object
      properties:
        - name: description
tables:
  - name: lines
    keywords: [miktar, tutar]
    min_columns: 3
`

func TestParseSchema_YAML(t *testing.T) {
	s, err := ParseSchema([]byte(yamlSchema), FormatYAML, 8)
	require.NoError(t, err)
	assert.Equal(t, "fatura", s.TemplateName)
	require.Len(t, s.Fields, 3)
	assert.Equal(t, []string{`fatura no:\s*(\w+)`}, s.Fields[0].Patterns)
	assert.Equal(t, "top_left", s.Fields[1].Region)
	require.Len(t, s.Fields[1].Properties, 2)
	require.NotNil(t, s.Fields[2].Items)
	assert.Equal(t, "description", s.Fields[2].Items.Properties[0].Name)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, 3, s.Tables[0].MinColumns)
}

func TestParseSchema_JSON(t *testing.T) {
	doc := `{"template_name":"x","fields":[{"name":"total","type":"number","method":"fuzzy","keywords":["Toplam"]}]}`
	s, err := ParseSchema([]byte(doc), FormatJSON, 8)
	require.NoError(t, err)
	assert.Equal(t, "number", s.Fields[0].Type)
}

func TestParseSchema_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing template name", `{"fields":[{"name":"a"}]}`},
		{"unknown type", `{"template_name":"x","fields":[{"name":"a","type":"money"}]}`},
		{"unknown method", `{"template_name":"x","fields":[{"name":"a","method":"ocr"}]}`},
		{"unknown region", `{"template_name":"x","fields":[{"name":"a","region":"middle"}]}`},
		{"regex without patterns", `{"template_name":"x","fields":[{"name":"a","method":"regex"}]}`},
		{"fuzzy without keywords", `{"template_name":"x","fields":[{"name":"a","method":"fuzzy"}]}`},
		{"duplicate names", `{"template_name":"x","fields":[{"name":"a"},{"name":"a"}]}`},
		{"bad name", `{"template_name":"x","fields":[{"name":"has space"}]}`},
		{"no fields or tables", `{"template_name":"x","fields":[]}`},
		{"negative min columns", `{"template_name":"x","fields":[],"tables":[{"name":"t","min_columns":-1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc), FormatJSON, 8)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidSchema)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, common.CodeInvalidSchema, appErr.Code)
		})
	}
}

func TestValidateSchema_Depth(t *testing.T) {
	leaf := entity.FieldSchema{Name: "leaf"}
	field := leaf
	for i := 0; i < 4; i++ {
		field = entity.FieldSchema{Name: "level", Type: "object", Properties: []entity.FieldSchema{field}}
	}
	schema := entity.TemplateSchema{TemplateName: "deep", Fields: []entity.FieldSchema{field}}

	assert.NoError(t, ValidateSchema(schema, 5))
	err := ValidateSchema(schema, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper than 4 levels")
}

func TestPatternWarnings(t *testing.T) {
	schema := entity.TemplateSchema{TemplateName: "x", Fields: []entity.FieldSchema{
		{Name: "a", Method: "regex", Patterns: []string{`ok\d+`, `(?<=x)y`}},
		{Name: "b", Type: "object", Properties: []entity.FieldSchema{{Name: "c", Method: "regex", Patterns: []string{`[`}}}},
	}}
	warnings := PatternWarnings(schema)
	require.Len(t, warnings, 2)
	assert.Equal(t, "fields[0].patterns[1]", warnings[0].Field)
	assert.Equal(t, "fields[1].properties[0].patterns[0]", warnings[1].Field)

	// invalid patterns do not make the schema invalid
	assert.NoError(t, ValidateSchema(schema, 8))
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fatura.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSchema), 0o600))

	s, err := LoadSchema(path, 8)
	require.NoError(t, err)
	assert.Equal(t, "fatura", s.TemplateName)

	_, err = LoadSchema(filepath.Join(dir, "schema.txt"), 8)
	assert.ErrorIs(t, err, common.ErrInvalidSchema)

	_, err = LoadSchema(filepath.Join(dir, "missing.json"), 8)
	require.Error(t, err)
}
