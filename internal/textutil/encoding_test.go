package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanEncoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"dashes", "2024–01—02‐03", "2024-01-02-03"},
		{"replacement char", "Fatura�No", "Fatura-No"},
		{"smart quotes", "“Total” ‘due’", `"Total" 'due'`},
		{"ligatures", "ﬁrma ﬂat", "firma flat"},
		{"keeps newlines and tabs", "a\tb\nc\r\n", "a\tb\nc\r\n"},
		{"control char becomes dash", "a\x07b", "a-b"},
		{"zero width removed", "AB\u200bC", "ABC"},
		{"composes decomposed turkish", "s\u0327irket", "\u015firket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanEncoding(tt.in))
		})
	}
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `"A-B"`, CleanResponse("“A–B”"))
	assert.Equal(t, "", CleanResponse(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "şük", Truncate("şükrü", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a b\nc d", CollapseSpaces("  a   b \n\tc \t d"))
}

func TestFold(t *testing.T) {
	f := Fold("AÇIKLAMA MİKTAR")
	assert.True(t, f.Contains("açıklama"))
	assert.True(t, f.Contains("miktar"))
	assert.False(t, f.Contains("fiyat"))
	assert.Equal(t, 2, f.CountDistinct([]string{"açıklama", "miktar", "fiyat"}))

	plain := Fold("INVOICE TOTAL")
	assert.True(t, plain.Contains("invoice"))
	assert.True(t, plain.ContainsAny("vat", "total"))
}
