package layout

import (
	"cmp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// metadata column starts at 40% of the page width
const metadataColumn = 0.4

type metadataLabel struct {
	key    string
	labels []string
}

var metadataLabels = []metadataLabel{
	{"tarih", []string{"tarih", "date"}},
	{"fatura_no", []string{"fatura no", "invoice no", "invoice number", "fatura numarası"}},
	{"senaryo", []string{"senaryo", "scenario"}},
	{"siparis_no", []string{"sipariş no", "siparis no", "order no", "order number"}},
	{"fatura_tipi", []string{"fatura tipi", "invoice type", "fatura türü"}},
	{"ozellestirme_no", []string{"özelleştirme no", "ozellestirme no", "customization no"}},
	{"ettn", []string{"ettn", "e-fatura uuid"}},
	{"son_odeme_tarihi", []string{"son ödeme tarihi", "son odeme tarihi", "due date"}},
	{"olusma_zamani", []string{"oluşma zamanı", "olusma zamani", "creation time"}},
}

// ReadMetadataBlock reads labelled values from the right-hand column of a
// page header. A label takes the text after its colon, or the next line
// when it has none. The first value seen for a key is kept.
func ReadMetadataBlock(fragments []entity.TextFragment, pageWidth float64) map[string]string {
	var right []entity.TextFragment
	for _, f := range fragments {
		if f.X0 > pageWidth*metadataColumn && strings.TrimSpace(f.Text) != "" {
			right = append(right, f)
		}
	}
	slices.SortStableFunc(right, func(a, b entity.TextFragment) int {
		return cmp.Compare(a.Y0, b.Y0)
	})

	out := make(map[string]string)
	for _, f := range right {
		text := strings.TrimSpace(f.Text)
		if !strings.ContainsAny(text, ":\n") {
			continue
		}
		lines := strings.Split(text, "\n")
		for i, raw := range lines {
			line := strings.TrimSpace(raw)
			key := matchLabel(line)
			if key == "" {
				continue
			}
			if _, done := out[key]; done {
				continue
			}
			var value string
			if _, after, ok := strings.Cut(line, ":"); ok {
				value = strings.TrimSpace(after)
			} else if i+1 < len(lines) {
				value = strings.TrimSpace(lines[i+1])
			}
			if value != "" {
				out[key] = value
			}
		}
	}
	return out
}

// matchLabel returns the key whose label occurs in line. The longest label
// wins so "son ödeme tarihi" is not read as "tarih".
func matchLabel(line string) string {
	label := strings.Split(strings.ToLower(line), ":")[0]
	key, longest := "", 0
	for _, m := range metadataLabels {
		for _, l := range m.labels {
			if len(l) > longest && strings.Contains(label, l) {
				key, longest = m.key, len(l)
			}
		}
	}
	return key
}
