package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const pageWidth = 600.0

func frag(x0, y0 float64, text string) entity.TextFragment {
	return entity.TextFragment{X0: x0, Y0: y0, X1: x0 + 100, Y1: y0 + 10, Text: text}
}

func texts(fs []entity.TextFragment) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Text)
	}
	return out
}

func TestSegment_GreetingAnchor(t *testing.T) {
	a := frag(10, 0, "ABC LTD ŞTİ")
	b := frag(10, 20, "SAYIN")
	c := frag(10, 40, "Jane Doe")

	got := NewSegmenter().Segment([]entity.TextFragment{c, a, b}, pageWidth)
	assert.Equal(t, []string{"ABC LTD ŞTİ"}, texts(got.Sender))
	assert.Equal(t, []string{"SAYIN", "Jane Doe"}, texts(got.Recipient))
}

func TestSegment_Filters(t *testing.T) {
	in := []entity.TextFragment{
		frag(10, 0, "e-Fatura"),
		frag(10, 10, "Sender Company A.Ş."),
		frag(400, 12, "Fatura No: X1"),
		frag(10, 14, "abc"),
		frag(10, 16, "Mal Hizmet Tablosu"),
		frag(10, 30, "Sayın Recipient Ltd"),
		frag(10, 50, "ETTN: 1111"),
		frag(10, 60, "after the cutoff"),
	}
	s := NewSegmenter()
	assert.Equal(t, []string{"Sender Company A.Ş.", "Sayın Recipient Ltd"}, texts(s.Filter(in, pageWidth)))

	got := s.Segment(in, pageWidth)
	assert.Equal(t, []string{"Sender Company A.Ş."}, texts(got.Sender))
	assert.Equal(t, []string{"Sayın Recipient Ltd"}, texts(got.Recipient))
}

func TestSegment_GapFallback(t *testing.T) {
	in := []entity.TextFragment{
		frag(10, 0, "Sender One"),
		frag(10, 12, "Sender Street"),
		frag(10, 60, "Recipient One"),
		frag(10, 72, "Recipient Street"),
	}
	got := NewSegmenter().Segment(in, pageWidth)
	assert.Equal(t, []string{"Sender One", "Sender Street"}, texts(got.Sender))
	assert.Equal(t, []string{"Recipient One", "Recipient Street"}, texts(got.Recipient))
}

func TestSegment_MidpointFallback(t *testing.T) {
	in := []entity.TextFragment{
		frag(10, 0, "Line one"),
		frag(10, 12, "Line two"),
		frag(10, 24, "Line three"),
	}
	got := NewSegmenter().Segment(in, pageWidth)
	assert.Equal(t, []string{"Line one"}, texts(got.Sender))
	assert.Equal(t, []string{"Line two", "Line three"}, texts(got.Recipient))

	wide := NewSegmenter(WithMinGap(100)).Segment([]entity.TextFragment{
		frag(10, 0, "Line one"),
		frag(10, 60, "Line two"),
	}, pageWidth)
	assert.Equal(t, []string{"Line one"}, texts(wide.Sender))
}

func TestSegment_RepairsEmptySide(t *testing.T) {
	in := []entity.TextFragment{
		frag(10, 0, "SAYIN Someone"),
		frag(10, 12, "Some Street 5"),
	}
	got := NewSegmenter().Segment(in, pageWidth)
	assert.Equal(t, []string{"SAYIN Someone"}, texts(got.Sender))
	assert.Equal(t, []string{"Some Street 5"}, texts(got.Recipient))
}

func TestSegment_Degenerate(t *testing.T) {
	s := NewSegmenter()

	empty := s.Segment(nil, pageWidth)
	assert.Empty(t, empty.Sender)
	assert.Empty(t, empty.Recipient)

	single := s.Segment([]entity.TextFragment{frag(10, 0, "Only Company")}, pageWidth)
	assert.Empty(t, single.Sender)
	assert.Equal(t, []string{"Only Company"}, texts(single.Recipient))

	greetingOnly := s.Segment([]entity.TextFragment{frag(10, 0, "SAYIN Ali Veli")}, pageWidth)
	assert.Empty(t, greetingOnly.Sender)
	assert.Equal(t, []string{"SAYIN Ali Veli"}, texts(greetingOnly.Recipient))
}

func TestSegment_PartitionKeepsOrder(t *testing.T) {
	in := []entity.TextFragment{
		frag(10, 40, "Third block"),
		frag(10, 0, "First block"),
		frag(10, 100, "Sayın Fourth"),
		frag(12, 20, "Second block"),
		frag(10, 120, "Fifth block"),
	}
	s := NewSegmenter()
	got := s.Segment(in, pageWidth)
	require.NotEmpty(t, got.Sender)
	require.NotEmpty(t, got.Recipient)
	joined := append(append([]entity.TextFragment{}, got.Sender...), got.Recipient...)
	assert.Equal(t, s.Filter(in, pageWidth), joined)
}

func TestGroupRegions(t *testing.T) {
	in := []entity.TextFragment{
		{X0: 0, Y0: 0, X1: 100, Y1: 100, Text: "tl"},
		{X0: 250, Y0: 0, X1: 350, Y1: 100, Text: "tc"},
		{X0: 450, Y0: 650, X1: 550, Y1: 750, Text: "br"},
		{X0: 0, Y0: 650, X1: 100, Y1: 750, Text: "bl"},
	}
	got := GroupRegions(in, 600, 800)
	assert.Len(t, got, 6)
	assert.Equal(t, []string{"tl"}, texts(got[constants.RegionTopLeft]))
	assert.Equal(t, []string{"tc"}, texts(got[constants.RegionTopCenter]))
	assert.Equal(t, []string{"br"}, texts(got[constants.RegionBottomRight]))
	assert.Equal(t, []string{"bl"}, texts(got[constants.RegionBottomLeft]))
	assert.Empty(t, got[constants.RegionTopRight])

	regions := RegionTexts(in, 600, 800)
	assert.Len(t, regions, 4)
	assert.Equal(t, "tl", regions["top_left"])
}

func TestPageRegionTexts(t *testing.T) {
	pages := []entity.Page{
		{Number: 1, Width: 600, Height: 800, Fragments: []entity.TextFragment{{X0: 0, Y0: 0, X1: 100, Y1: 100, Text: "one"}}},
		{Number: 2, Width: 600, Height: 800, Fragments: []entity.TextFragment{{X0: 0, Y0: 0, X1: 100, Y1: 100, Text: "two"}}},
	}
	assert.Equal(t, "one\ntwo", PageRegionTexts(pages)["top_left"])
}

func TestReadMetadataBlock(t *testing.T) {
	in := []entity.TextFragment{
		frag(300, 40, "Son Ödeme Tarihi: 15.01.2024"),
		frag(300, 0, "Fatura No: ABC2024\nTarih: 01.01.2024"),
		frag(300, 20, "Senaryo\nTEMELFATURA"),
		frag(300, 60, "Fatura No: OTHER"),
		frag(10, 5, "Tarih: 99.99.9999"),
		frag(300, 80, "no label here"),
	}
	got := ReadMetadataBlock(in, pageWidth)
	assert.Equal(t, map[string]string{
		"fatura_no":        "ABC2024",
		"tarih":            "01.01.2024",
		"senaryo":          "TEMELFATURA",
		"son_odeme_tarihi": "15.01.2024",
	}, got)
}
