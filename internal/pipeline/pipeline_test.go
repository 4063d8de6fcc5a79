package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const invoiceText = `e-Arşiv Fatura
Fatura No: GIB2024000000001
Fatura Tarihi: 15.03.2024
Senaryo: EARSIVFATURA
ETTN: 8f14e45f-ceea-467f-a0e6-1b2c3d4e5f60
Ödenecek Tutar: 1.200,00 TL`

func testConfig() *common.Config {
	return &common.Config{
		Tables:  common.TablesConfig{MinRows: 2, MinCols: 2, HeaderMode: constants.HeaderModeAuto},
		Extract: common.ExtractConfig{TextWindow: 3000, ArrayTextWindow: 6000, MaxSchemaDepth: 8},
	}
}

func invoiceDoc() *entity.Document {
	return &entity.Document{
		Source: "invoice.pdf",
		Pages: []entity.Page{{
			Number: 1, Width: 600, Height: 800, Text: invoiceText,
			Fragments: []entity.TextFragment{
				{X0: 40, Y0: 40, X1: 250, Y1: 55, Text: "ÖRNEK TEKSTİL LTD. ŞTİ."},
				{X0: 40, Y0: 58, X1: 250, Y1: 70, Text: "VKN: 1234567890"},
				{X0: 40, Y0: 120, X1: 250, Y1: 132, Text: "SAYIN"},
				{X0: 40, Y0: 134, X1: 250, Y1: 146, Text: "Ali Veli"},
				{X0: 40, Y0: 148, X1: 250, Y1: 160, Text: "TCKN: 12345678901"},
			},
		}},
		Tables: []entity.PageGrid{
			{Page: 1, Rows: entity.RawGrid{
				{"Sıra No", "Mal Hizmet", "Miktar", "Tutar"},
				{"1", "Kumaş", "10", "500,00"},
				{"2", "İplik", "5", "300,00"},
			}},
			{Page: 1, Rows: entity.RawGrid{
				{"Mal Hizmet Toplam Tutarı", "1.000,00 TL"},
				{"Ödenecek Tutar", "1.200,00 TL"},
			}},
			{Page: 2, Rows: entity.RawGrid{{"only one row"}}},
		},
	}
}

func TestAnalyzer_Tables(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, nil)
	report := a.Tables(context.Background(), invoiceDoc())

	assert.Equal(t, 2, report.TableCount)
	grouped := report.Grouped()
	require.Len(t, grouped, 1)
	require.Len(t, grouped["page_1"], 2)
	assert.True(t, grouped["page_1"][0].HasHeader)
	assert.Equal(t, "Kumaş", grouped["page_1"][0].Rows[0]["Mal Hizmet"])
}

func TestAnalyzer_Detect(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, nil)

	id, ok := a.Detect(context.Background(), invoiceDoc())
	assert.True(t, ok)
	assert.Equal(t, "tr_efatura", id)

	_, ok = a.Detect(context.Background(), &entity.Document{Pages: []entity.Page{{Number: 1, Text: "hello"}}})
	assert.False(t, ok)
}

func TestAnalyzer_TemplateAuto(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, nil)
	res, err := a.Template(context.Background(), invoiceDoc(), AutoTemplate)
	require.NoError(t, err)

	assert.Equal(t, "tr_efatura", res.TemplateID)
	assert.Equal(t, "GIB2024000000001", res.InvoiceMetadata["fatura_no"])
	assert.Equal(t, "1200.00 TL", fmt.Sprint(res.Totals["odenecek_tutar"]))
	require.NotNil(t, res.Sender.TaxID)
	assert.Equal(t, "1234567890", *res.Sender.TaxID)
	require.NotNil(t, res.Recipient.TaxID)
	assert.Equal(t, "12345678901", *res.Recipient.TaxID)
	assert.Len(t, res.LineItems, 2)
	assert.Equal(t, []string{"Sıra No", "Mal Hizmet", "Miktar", "Tutar"}, res.LineItemColumns)
}

func TestAnalyzer_TemplateErrors(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, nil)
	plain := &entity.Document{Pages: []entity.Page{{Number: 1, Text: "Dear customer"}}}

	_, err := a.Template(context.Background(), plain, "")
	require.Error(t, err)
	assert.Equal(t, common.CodeNoTemplate, common.ErrorCode(err))

	_, err = a.Template(context.Background(), plain, "nope")
	require.Error(t, err)
	assert.Equal(t, common.CodeUnknownTemplate, common.ErrorCode(err))
}

func TestAnalyzer_Custom(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, nil)
	schema := &entity.TemplateSchema{
		TemplateName: "fatura",
		Fields: []entity.FieldSchema{
			{Name: "no", Method: "regex", Patterns: []string{`Fatura No:\s*(\S+)`}},
			{Name: "ozet", Method: "llm", Prompt: "summarize"},
		},
		Tables: []entity.TableSchema{{Name: "kalemler", Keywords: []string{"miktar", "tutar"}}},
	}

	res := a.Custom(context.Background(), invoiceDoc(), schema)
	assert.Equal(t, "fatura", res.TemplateName)
	assert.Equal(t, "GIB2024000000001", res.Data["no"])
	assert.Contains(t, res.Data, "ozet")
	assert.Nil(t, res.Data["ozet"])
	require.NotNil(t, res.Tables["kalemler"])
	assert.Equal(t, 2, res.Tables["kalemler"].RowCount)
}

func writeBundle(t *testing.T, dir string, doc *entity.Document) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, invoiceDoc())

	cfg := testConfig()
	p := NewProcessor(nil, document.NewLoader(0, nil), NewAnalyzer(cfg, nil, nil))
	p.OutDir = filepath.Join(dir, "out")

	out, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "invoice"+constants.ResultSuffix), out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "tr_efatura", got["template_id"])
}

func TestProcessor_Schema(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, invoiceDoc())

	p := NewProcessor(nil, document.NewLoader(0, nil), NewAnalyzer(testConfig(), nil, nil))
	p.Schema = &entity.TemplateSchema{
		TemplateName: "kisa",
		Fields:       []entity.FieldSchema{{Name: "ettn", Method: "regex", Patterns: []string{`ETTN:\s*(\S+)`}}},
	}

	out, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice"+constants.ResultSuffix), out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var got entity.CustomResult
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "8f14e45f-ceea-467f-a0e6-1b2c3d4e5f60", got.Data["ettn"])
}

func TestProcessor_UndetectedNamesBundle(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, &entity.Document{Pages: []entity.Page{{Number: 1, Text: "Dear customer"}}})

	p := NewProcessor(nil, document.NewLoader(0, nil), NewAnalyzer(testConfig(), nil, nil))
	_, err := p.ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, common.CodeNoTemplate, common.ErrorCode(err))
	assert.Contains(t, err.Error(), path)
	assert.NoFileExists(t, p.OutputPath(path))
}

func TestProcessor_LoadError(t *testing.T) {
	p := NewProcessor(nil, document.NewLoader(0, nil), NewAnalyzer(testConfig(), nil, nil))
	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, common.CodeInvalidInput, common.ErrorCode(err))
}
