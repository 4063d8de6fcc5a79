package templates

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/coerce"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/layout"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/match"
	"github.com/joseph-ayodele/docextract/internal/tables"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

// minKeySimilarity is how close a "key: value" line's key must be to a field
// name for the key/value fallback to accept it.
const minKeySimilarity = 0.6

// Input is what the mapper reads from one document.
type Input struct {
	Text   string
	Tables []entity.Table
	// Header fragments of the first page and that page's width.
	Fragments []entity.TextFragment
	PageWidth float64
}

// Mapper fills a template's result from a document.
type Mapper struct {
	registry  *Registry
	entities  llm.EntityReader
	segmenter *layout.Segmenter
	patterns  *match.PatternMatcher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMapper builds a mapper. entities may be nil, in which case party names,
// addresses and tax offices stay empty.
func NewMapper(registry *Registry, entities llm.EntityReader, segmenter *layout.Segmenter, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if segmenter == nil {
		segmenter = layout.NewSegmenter()
	}
	return &Mapper{
		registry:  registry,
		entities:  entities,
		segmenter: segmenter,
		patterns:  match.NewPatternMatcher(logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Map extracts the template id from in. Only an unknown id is an error;
// every value that cannot be found is left nil.
func (m *Mapper) Map(ctx context.Context, id string, in Input) (*entity.TemplateResult, error) {
	tpl, ok := m.registry.Get(id)
	if !ok {
		return nil, common.UnknownTemplateError(id, m.registry.Suggest(id))
	}
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	m.logger.Info("template.map.start", "req_id", rid, "template", id,
		"text_len", len(in.Text), "tables", len(in.Tables), "fragments", len(in.Fragments))

	res := &entity.TemplateResult{
		DocumentType:    tpl.Name,
		TemplateID:      id,
		ExtractionDate:  m.now().Format(time.RFC3339),
		InvoiceMetadata: make(map[string]any),
		Totals:          make(map[string]any),
	}

	res.Sender, res.Recipient = m.parties(ctx, in)

	kv := keyValuePairs(in.Text)
	block := layout.ReadMetadataBlock(in.Fragments, in.PageWidth)
	for _, f := range tpl.FieldsIn(GroupMetadata) {
		v := m.textField(f, in.Text, kv)
		if v == nil {
			if raw, ok := block[f.Name]; ok {
				v = parseValue(raw, f.Type)
			}
		}
		res.InvoiceMetadata[f.Name] = v
	}

	if totals := tables.FindTotals(in.Tables); totals != nil {
		m.logger.Debug("template.totals.table", "req_id", rid,
			"rows", totals.RowCount, "cols", totals.ColCount)
		for _, f := range tpl.FieldsIn(GroupTotals) {
			res.Totals[f.Name] = tableField(*totals, f)
		}
	} else {
		m.logger.Debug("template.totals.text_fallback", "req_id", rid)
		for _, f := range tpl.FieldsIn(GroupTotals) {
			res.Totals[f.Name] = m.textField(f, in.Text, kv)
		}
	}

	if items := tables.FindLineItems(in.Tables); items != nil {
		res.LineItems = items.Rows
		if res.LineItems == nil {
			res.LineItems = []entity.Row{}
		}
		res.LineItemColumns = items.Headers
	}

	m.logger.Info("template.map.ok", "req_id", rid, "template", id,
		"metadata_found", countFound(res.InvoiceMetadata),
		"totals_found", countFound(res.Totals),
		"line_items", len(res.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// parties reads both sides from the page header. The header layout is the
// segmented sender block followed by the recipient block.
func (m *Mapper) parties(ctx context.Context, in Input) (sender, recipient entity.Party) {
	group := m.segmenter.Segment(in.Fragments, in.PageWidth)
	headerLayout := strings.TrimSpace(layout.BlockText(group.Sender) + "\n" + layout.BlockText(group.Recipient))
	if headerLayout == "" {
		return sender, recipient
	}
	sender.RawText = &headerLayout
	recipient.RawText = &headerLayout

	if m.entities != nil {
		p := m.entities.ExtractParties(ctx, headerLayout)
		sender.Name, sender.Address, sender.TaxOffice = p.Sender.Name, p.Sender.Address, p.Sender.TaxOffice
		recipient.Name, recipient.Address, recipient.TaxOffice = p.Recipient.Name, p.Recipient.Address, p.Recipient.TaxOffice
	}

	s, r := AssignTaxIDs(FindTaxIDs(headerLayout))
	setTaxID(&sender, s)
	setTaxID(&recipient, r)
	m.logger.Debug("template.entities.ok", "req_id", common.RequestIDFromContext(ctx),
		"sender_tax_id", sender.TaxID != nil, "recipient_tax_id", recipient.TaxID != nil)
	return sender, recipient
}

func setTaxID(p *entity.Party, id *TaxID) {
	if id == nil {
		return
	}
	value, typ := id.Value, id.Type
	p.TaxID = &value
	p.TaxIDType = &typ
}

// textField tries the field's patterns on the whole text, then the
// key/value lines.
func (m *Mapper) textField(f Field, text string, kv []keyValue) any {
	if raw, ok := m.patterns.Match(f.Patterns, text); ok {
		return parseValue(raw, f.Type)
	}
	target := strings.ReplaceAll(strings.ToLower(f.Name), "_", " ")
	for _, p := range kv {
		if match.Ratio(target, p.key) >= minKeySimilarity {
			return parseValue(p.value, f.Type)
		}
	}
	return nil
}

// tableField looks the field up in a two-column totals table: the first
// row whose label contains one of the field's keywords gives the value in
// the second column. The header row is searched too.
func tableField(t entity.Table, f Field) any {
	rows := make([][]string, 0, len(t.Rows)+1)
	if len(t.Headers) > 0 {
		rows = append(rows, t.Headers)
	}
	rows = append(rows, t.Values()...)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		label := textutil.Fold(strings.TrimSpace(row[0]))
		if label.ContainsAny(f.TableKeywords...) {
			return parseValue(strings.TrimSpace(row[1]), f.Type)
		}
	}
	return nil
}

// parseValue converts a matched string; amounts that do not parse are nil.
func parseValue(raw string, typ constants.FieldType) any {
	if raw == "" {
		return nil
	}
	return coerce.Coerce(raw, entity.FieldSchema{Type: string(typ)})
}

type keyValue struct {
	key   string
	value string
}

// keyValuePairs collects "key: value" lines. Keys are lowercased; a key seen
// again keeps its first position and takes the later value.
func keyValuePairs(text string) []keyValue {
	var out []keyValue
	index := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if i, seen := index[key]; seen {
			out[i].value = value
			continue
		}
		index[key] = len(out)
		out = append(out, keyValue{key: key, value: value})
	}
	return out
}

func countFound(values map[string]any) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}
