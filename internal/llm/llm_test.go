package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// scriptedGenerator answers prompts in order and records what it was asked.
type scriptedGenerator struct {
	down    bool
	answers []string
	errs    []error
	prompts []string
	opts    []GenerateOptions
}

func (g *scriptedGenerator) Available(context.Context) bool { return !g.down }

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if i < len(g.answers) {
		return g.answers[i], err
	}
	return "", err
}

func ptr(s string) *string { return &s }

func TestFieldPrompt_Budget(t *testing.T) {
	tests := []struct {
		prompt string
		tokens int
		json   bool
	}{
		{"Extract the invoice number", 128, false},
		{"Extract items as JSON", 512, true},
		{"Give me a list of names", 512, true},
		{"Extract ALL rows as an array", 1024, true},
	}
	for _, tt := range tests {
		full, tokens := FieldPrompt("TEXT", tt.prompt)
		assert.Equal(t, tt.tokens, tokens, tt.prompt)
		assert.True(t, strings.HasPrefix(full, tt.prompt+"\n\nText:\nTEXT\n\n"))
		assert.Equal(t, tt.json, strings.Contains(full, "Return ONLY raw JSON"), tt.prompt)
	}
}

func TestService_ExtractField(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{"\"ABC – LTD\""}}
	svc := NewService(gen, nil)

	got, err := svc.ExtractField(context.Background(), "text", "Extract 'seller'")
	require.NoError(t, err)
	assert.Equal(t, "ABC - LTD", got)
	require.Len(t, gen.opts, 1)
	assert.Equal(t, 128, gen.opts[0].MaxTokens)
	assert.InDelta(t, 0.1, gen.opts[0].Temperature, 1e-9)
}

func TestService_Unavailable(t *testing.T) {
	svc := NewService(&scriptedGenerator{down: true}, nil)
	_, err := svc.ExtractField(context.Background(), "text", "p")
	assert.ErrorIs(t, err, common.ErrModelUnavailable)

	var nilSvc *Service
	assert.False(t, nilSvc.Available(context.Background()))
	assert.False(t, NewService(nil, nil).Available(context.Background()))
}

func TestService_ExtractFieldError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&scriptedGenerator{errs: []error{boom}}, nil)
	_, err := svc.ExtractField(context.Background(), "text", "p")
	assert.ErrorIs(t, err, boom)
}

func TestCleanPattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`Pattern: \d{10}`, `\d{10}`},
		{"```regex\n[A-Z]{2}\\d+\n```", `[A-Z]{2}\d+`},
		{"`\\d+`", `\d+`},
		{"\"TR\\d{24}\"", `TR\d{24}`},
		{"This matches numbers\n\\d+\nExplanation: digits", `\d+`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanPattern(tt.in), tt.in)
	}
}

func TestService_GenerateRegex(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{"Pattern: TR\\d{2}[0-9 ]{20,30}"}}
	svc := NewService(gen, nil)

	p, err := svc.GenerateRegex(context.Background(), "Turkish IBAN")
	require.NoError(t, err)
	assert.Equal(t, `TR\d{2}[0-9 ]{20,30}`, p.Pattern)
	assert.Equal(t, "Turkish IBAN", p.Description)
	assert.Equal(t, "Pattern generated for: Turkish IBAN", p.Explanation)
	assert.Equal(t, 128, gen.opts[0].MaxTokens)
	assert.InDelta(t, 0.2, gen.opts[0].Temperature, 1e-9)
	assert.Contains(t, gen.prompts[0], "Generate a regex pattern for: Turkish IBAN")
}

func TestService_GenerateRegexRejects(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"too short", "x"},
		{"echo", "invoice number"},
		{"prose", "I cannot help with that request"},
		{"lookbehind does not compile", `(?<=No:)\d+`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&scriptedGenerator{answers: []string{tt.answer}}, nil)
			p, err := svc.GenerateRegex(context.Background(), "invoice number")
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrNoPattern)
		})
	}
}

func TestValidateParties(t *testing.T) {
	assert.NoError(t, ValidateParties([]byte(`{"sender":{"name":"A","address":null},"recipient":{}}`)))
	assert.Error(t, ValidateParties([]byte(`{"sender":{"name":5},"recipient":{}}`)))
	assert.Error(t, ValidateParties([]byte(`{"sender":{}}`)))
	assert.Error(t, ValidateParties([]byte(`not json`)))
}

func TestSanitizeParties(t *testing.T) {
	raw := []byte(`{"sender":{"name":" ABC ","tax_id":"123","address":["x"]},"recipient":"none","extra":1}`)
	out, touched, err := SanitizeParties(raw, nil)
	require.NoError(t, err)
	require.NoError(t, ValidateParties(out))
	assert.JSONEq(t, `{"sender":{"name":"ABC","address":null},"recipient":{}}`, string(out))
	assert.Contains(t, touched, "sender.tax_id(unknown)")
	assert.Contains(t, touched, "recipient(type)")
	assert.Contains(t, touched, "extra(unknown)")
}

func TestParsePartiesResponse(t *testing.T) {
	out := "Here you go:\n```json\n" +
		`{"sender":{"name":"ABC LTD ŞTİ","address":"X Mah.","tax_office":"Kadıköy"},` +
		`"recipient":{"name":"SAYIN DEF A.Ş.","address":null,"tax_office":12345}}` +
		"\n```"
	p, err := ParsePartiesResponse(out, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC LTD ŞTİ", *p.Sender.Name)
	assert.Equal(t, "12345", *p.Recipient.TaxOffice)
	assert.Nil(t, p.Recipient.Address)

	_, err = ParsePartiesResponse("no json here", nil)
	assert.Error(t, err)
}

func TestCleanEntityName(t *testing.T) {
	assert.Equal(t, "ABC LTD ŞTİ", *CleanEntityName(ptr("  ABC   LTD\nŞTİ ")))
	assert.Nil(t, CleanEntityName(ptr("AB")))
	assert.Nil(t, CleanEntityName(ptr("Atatürk MAH. 5. Sok")))
	assert.Nil(t, CleanEntityName(nil))

	assert.Equal(t, "DEF A.Ş.", *CleanRecipientName(ptr("SAYIN DEF A.Ş.")))
	assert.Equal(t, "DEF A.Ş.", *CleanRecipientName(ptr("Sayın  DEF A.Ş.")))
	assert.Equal(t, "SAYINLAR LTD", *CleanRecipientName(ptr("SAYINLAR LTD")))
}

func TestCleanTaxOffice(t *testing.T) {
	assert.Nil(t, CleanTaxOffice(ptr("Vergi Dairesi")))
	assert.Nil(t, CleanTaxOffice(ptr("null")))
	assert.Nil(t, CleanTaxOffice(ptr("ab")))
	assert.Equal(t, "Kadıköy", *CleanTaxOffice(ptr("Kadıköy")))
}

func TestSplitHeader(t *testing.T) {
	s, r := SplitHeader("ABC LTD\nİstanbul\nSAYIN\nDEF A.Ş.")
	assert.Equal(t, "ABC LTD\nİstanbul", s)
	assert.Equal(t, "SAYIN\nDEF A.Ş.", r)

	s, r = SplitHeader("a\nb\nc\nd")
	assert.Equal(t, "a\nb", s)
	assert.Equal(t, "c\nd", r)
}

func TestRegexParty(t *testing.T) {
	text := "SAYIN\nÖRNEK TEKSTİL SAN. VE TİC. LTD. ŞTİ.\nAtatürk Mah. Cumhuriyet Cad. No:5\nKadıköy / İstanbul\nTel: 0216 000 00 00\nVergi Dairesi: Kadıköy VKN 1234567890"
	p := RegexParty(text)
	require.NotNil(t, p.Name)
	// the suffix pattern starts at the greeting, so the name line wins
	assert.Equal(t, "ÖRNEK TEKSTİL SAN. VE TİC. LTD. ŞTİ.", *p.Name)
	require.NotNil(t, p.TaxOffice)
	assert.Equal(t, "Kadıköy", *p.TaxOffice)
	require.NotNil(t, p.Address)
	assert.Equal(t, "Atatürk Mah. Cumhuriyet Cad. No:5", *p.Address)
}

func TestRegexParty_NameLine(t *testing.T) {
	p := RegexParty("12 Ocak\nYılmaz Ticaret Hizmetleri\nBağdat Cad. No:10")
	require.NotNil(t, p.Name)
	assert.Equal(t, "Yılmaz Ticaret Hizmetleri", *p.Name)
	assert.Nil(t, p.TaxOffice)
}

func TestEntityExtractor_Combined(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{
		`{"sender":{"name":"ABC LTD ŞTİ","address":"X Mah.","tax_office":"vergi dairesi"},` +
			`"recipient":{"name":"SAYIN DEF A.Ş.","address":"Y Cad.","tax_office":"Kadıköy"}}`,
	}}
	ex := NewEntityExtractor(NewService(gen, nil), nil)

	p := ex.ExtractParties(context.Background(), "ABC LTD ŞTİ\nSAYIN\nDEF A.Ş.")
	assert.Equal(t, "ABC LTD ŞTİ", *p.Sender.Name)
	assert.Nil(t, p.Sender.TaxOffice)
	assert.Equal(t, "DEF A.Ş.", *p.Recipient.Name)
	assert.Equal(t, "Kadıköy", *p.Recipient.TaxOffice)
	require.Len(t, gen.opts, 1)
	assert.Equal(t, 512, gen.opts[0].MaxTokens)
}

func TestEntityExtractor_SeparateFallback(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{
		"I could not read it",
		`{"name": "ABC LTD ŞTİ", "address": "X Mah.", "tax_office": null}`,
		`{"name": "SAYIN DEF A.Ş.", "address": null, "tax_office": "Beşiktaş"}`,
	}}
	ex := NewEntityExtractor(NewService(gen, nil), nil)

	p := ex.ExtractParties(context.Background(), "ABC LTD ŞTİ\nSAYIN\nDEF A.Ş.")
	require.Len(t, gen.prompts, 3)
	assert.Contains(t, gen.prompts[1], "gönderici (sender)")
	assert.Contains(t, gen.prompts[1], "ABC LTD ŞTİ")
	assert.NotContains(t, gen.prompts[1], "DEF")
	assert.Contains(t, gen.prompts[2], "alıcı (recipient)")
	assert.Equal(t, 256, gen.opts[1].MaxTokens)

	assert.Equal(t, "ABC LTD ŞTİ", *p.Sender.Name)
	assert.Equal(t, "DEF A.Ş.", *p.Recipient.Name)
	assert.Equal(t, "Beşiktaş", *p.Recipient.TaxOffice)
}

func TestEntityExtractor_Unavailable(t *testing.T) {
	gen := &scriptedGenerator{down: true}
	ex := NewEntityExtractor(NewService(gen, nil), nil)

	p := ex.ExtractParties(context.Background(), "ABC TEKSTİL LTD. ŞTİ.\nSAYIN\nDEF GIDA A.Ş.")
	assert.Empty(t, gen.prompts)
	require.NotNil(t, p.Sender.Name)
	assert.Equal(t, "ABC TEKSTİL LTD.", *p.Sender.Name)
	require.NotNil(t, p.Recipient.Name)
	assert.Equal(t, "DEF GIDA A.Ş.", *p.Recipient.Name)
}
