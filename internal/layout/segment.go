// Package layout works on positioned text fragments: it splits the page
// header into sender and recipient blocks, buckets fragments into page
// regions and reads the key/value metadata column.
package layout

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const (
	defaultLeftBand = 0.35
	defaultMinGap   = 10.0
	defaultMinChars = 5
	cutoffToken     = "ettn"
)

// greeting printed right above the recipient block ("SAYIN", "Sayın", "SA YIN")
var recipientAnchor = regexp.MustCompile(`(?i)sa\s*y[iıİ]n`)

var noiseTokens = []string{
	"e-fatura", "e-arşiv",
	"sıra\nno", "mal hizmet", "malzeme/hizmet",
	"miktar", "birim\nfiyat", "kdv\noranı",
	"toplam\ntutar", "iskonto\ntutarı",
}

// Segmenter splits header fragments into sender and recipient blocks.
// The zero value is not usable; build one with NewSegmenter.
type Segmenter struct {
	leftBand float64
	minGap   float64
	minChars int
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithLeftBand sets the width of the entity column as a fraction of the page width.
func WithLeftBand(frac float64) SegmenterOption {
	return func(s *Segmenter) {
		if frac > 0 && frac <= 1 {
			s.leftBand = frac
		}
	}
}

// WithMinGap sets the smallest vertical gap that can separate the two parties.
func WithMinGap(gap float64) SegmenterOption {
	return func(s *Segmenter) {
		if gap >= 0 {
			s.minGap = gap
		}
	}
}

// WithMinChars drops fragments shorter than n characters.
func WithMinChars(n int) SegmenterOption {
	return func(s *Segmenter) {
		if n >= 0 {
			s.minChars = n
		}
	}
}

func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{
		leftBand: defaultLeftBand,
		minGap:   defaultMinGap,
		minChars: defaultMinChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment partitions fragments into sender and recipient blocks. The result
// is a single split of the filtered top-to-bottom sequence; fragments are
// never reordered across the split.
func (s *Segmenter) Segment(fragments []entity.TextFragment, pageWidth float64) entity.EntityBlockGroup {
	seq := s.Filter(fragments, pageWidth)
	if len(seq) == 0 {
		return entity.EntityBlockGroup{}
	}
	// the repair below would leave a lone fragment on the recipient side
	if len(seq) == 1 {
		return entity.EntityBlockGroup{Recipient: seq}
	}

	split := s.splitIndex(seq)
	group := entity.EntityBlockGroup{
		Sender:    slices.Clone(seq[:split]),
		Recipient: slices.Clone(seq[split:]),
	}

	// both sides must hold at least one fragment
	if len(group.Sender) == 0 {
		group.Sender = group.Recipient[:1]
		group.Recipient = group.Recipient[1:]
	}
	if len(group.Recipient) == 0 {
		last := len(group.Sender) - 1
		group.Recipient = group.Sender[last:]
		group.Sender = group.Sender[:last]
	}
	return group
}

// Filter applies the reading-order, cutoff, column and noise filters and
// returns the candidate entity fragments top to bottom.
func (s *Segmenter) Filter(fragments []entity.TextFragment, pageWidth float64) []entity.TextFragment {
	seq := slices.Clone(fragments)
	slices.SortStableFunc(seq, func(a, b entity.TextFragment) int {
		return cmp.Compare(a.Y0, b.Y0)
	})

	// a cutoff on the very first fragment leaves nothing to split, so it is ignored
	for i, f := range seq {
		if strings.Contains(strings.ToLower(f.Text), cutoffToken) {
			if i > 0 {
				seq = seq[:i]
			}
			break
		}
	}
	if len(seq) == 0 {
		return nil
	}

	leftmost := seq[0].X0
	for _, f := range seq[1:] {
		leftmost = min(leftmost, f.X0)
	}
	limit := leftmost + s.leftBand*pageWidth

	out := make([]entity.TextFragment, 0, len(seq))
	for _, f := range seq {
		if f.X0 >= limit {
			continue
		}
		text := strings.TrimSpace(f.Text)
		if utf8.RuneCountInString(text) < s.minChars {
			continue
		}
		if textutil.Fold(f.Text).ContainsAny(noiseTokens...) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// splitIndex returns the index of the first recipient fragment.
func (s *Segmenter) splitIndex(seq []entity.TextFragment) int {
	for i, f := range seq {
		if recipientAnchor.MatchString(strings.ToLower(f.Text)) {
			return i
		}
	}

	gapAt, widest := -1, 0.0
	for i := 0; i+1 < len(seq); i++ {
		gap := seq[i+1].Y0 - seq[i].Y1
		if gap > s.minGap && gap > widest {
			gapAt, widest = i, gap
		}
	}
	if gapAt >= 0 {
		return gapAt + 1
	}
	return len(seq) / 2
}

// BlockText joins fragment texts one per line.
func BlockText(blocks []entity.TextFragment) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, strings.TrimSpace(b.Text))
	}
	return strings.Join(parts, "\n")
}
