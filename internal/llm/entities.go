package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const (
	partiesTokens = 512
	singleTokens  = 256
)

var (
	rePartiesBlock = regexp.MustCompile(`\{[\s\S]*"sender"[\s\S]*"recipient"[\s\S]*\}`)
	reSingleBlock  = regexp.MustCompile(`\{[^}]+\}`)
	reGreeting     = regexp.MustCompile(`(?i)sa\s*y[iıİ]n`)
	reSayin        = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])(?:sayın|sayin)($|[^\p{L}\p{N}_])`)
	reStartsSayin  = regexp.MustCompile(`(?i)^SAYIN`)
	reWhitespace   = regexp.MustCompile(`\s+`)
	reLeadingDigit = regexp.MustCompile(`^\d+`)

	reCompanyNames = []*regexp.Regexp{
		regexp.MustCompile(`([A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü\s\.&-]+?(?:A\.Ş\.|LTD\.|ŞTİ\.|Ltd\. Şti\.|San\. Tic\.|İnş\. Taah\.|Tur\. Ltd\. Şti\.|Paz\. A\.Ş\.))`),
		regexp.MustCompile(`([A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü\s\.&-]+?(?:ANONİM ŞİRKETİ|LİMİTED ŞİRKETİ))`),
	}
	reTaxOffice     = regexp.MustCompile(`(?i)vergi\s+dairesi\s*[:\-]\s*([A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü\s]{2,40})`)
	reTaxOfficeTail = regexp.MustCompile(`(VKN|TCKN|Mersis|Tel|Fax|\d{10})`)

	addressIndicators = []string{"mahalle", "mah.", "sokak", "sok.", "cadde", "cad.", "bulvar", "no:", "kat:", "daire:", "//"}
	taxOfficeLabels   = []string{"vergi dairesi", "tax office", "null", "none", ""}

	nameLineStoplist = []string{
		"tel:", "fax:", "e-posta:", "email:", "vergi no", "vkn", "tckn", "ettn",
		"mahalle", "mah.", "mah:", "sokak", "sok.", "sok:", "cadde", "cad.", "cad:",
		"bulvar", "blv.", "no:", "no.", "kat:", "daire:", "posta kodu",
		"ilçe", "il:", "şehir", "//", "web:", "www.", "http",
	}
	addressLineKeywords = []string{"mah.", "mahallesi", "cad.", "cadde", "sok.", "sokak", "no:", "blv.", "bulvar"}
	addressLineStoplist = []string{"tel:", "fax:", "vergi", "vkn", "tckn"}
)

// EntityExtractor reads the sender and recipient of a Turkish e-invoice from
// its header layout text.
type EntityExtractor struct {
	svc    *Service
	logger *slog.Logger
}

func NewEntityExtractor(svc *Service, logger *slog.Logger) *EntityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityExtractor{svc: svc, logger: logger}
}

// ExtractParties asks the model for both parties at once. An unusable
// answer falls back to one question per side; an unavailable model falls
// back to label and company-suffix patterns.
func (e *EntityExtractor) ExtractParties(ctx context.Context, headerLayout string) Parties {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	text := textutil.CleanEncoding(headerLayout)

	if !e.svc.Available(ctx) {
		senderText, recipientText := SplitHeader(text)
		e.logger.Info("llm.entities.regex_fallback", "req_id", rid, "reason", "model unavailable")
		return Parties{Sender: RegexParty(senderText), Recipient: RegexParty(recipientText)}
	}

	e.logger.Info("llm.entities.start", "req_id", rid, "text_len", len(text))
	out, err := e.svc.Generate(ctx, partiesPrompt(text), GenerateOptions{MaxTokens: partiesTokens, Temperature: fieldTemperature})
	if err != nil {
		e.logger.Warn("llm.entities.generate_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return e.separate(ctx, text)
	}

	parties, err := ParsePartiesResponse(out, e.logger)
	if err != nil {
		e.logger.Warn("llm.entities.parse_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return e.separate(ctx, text)
	}

	parties.Sender.Name = CleanEntityName(parties.Sender.Name)
	parties.Recipient.Name = CleanRecipientName(parties.Recipient.Name)
	parties.Sender.TaxOffice = CleanTaxOffice(parties.Sender.TaxOffice)
	parties.Recipient.TaxOffice = CleanTaxOffice(parties.Recipient.TaxOffice)

	e.logger.Info("llm.entities.ok", "req_id", rid,
		"sender_found", parties.Sender.Name != nil,
		"recipient_found", parties.Recipient.Name != nil,
		"elapsed_ms", time.Since(start).Milliseconds())
	return parties
}

func (e *EntityExtractor) separate(ctx context.Context, text string) Parties {
	senderText, recipientText := SplitHeader(text)
	return Parties{
		Sender:    e.ExtractSingle(ctx, senderText, "sender"),
		Recipient: e.ExtractSingle(ctx, recipientText, "recipient"),
	}
}

// ExtractSingle asks for one side only. role is "sender" or "recipient".
// Any failure falls back to RegexParty.
func (e *EntityExtractor) ExtractSingle(ctx context.Context, text, role string) PartyFields {
	rid := common.RequestIDFromContext(ctx)
	text = textutil.CleanEncoding(text)

	out, err := e.svc.Generate(ctx, singlePrompt(text, role), GenerateOptions{MaxTokens: singleTokens, Temperature: fieldTemperature})
	if err != nil {
		e.logger.Warn("llm.entities.single_failed", "req_id", rid, "role", role, "error", err)
		return RegexParty(text)
	}
	block := reSingleBlock.FindString(out)
	var side map[string]any
	if block == "" || json.Unmarshal([]byte(block), &side) != nil {
		e.logger.Warn("llm.entities.single_unparsed", "req_id", rid, "role", role)
		return RegexParty(text)
	}

	p := sideFromMap(side)
	if role == "recipient" {
		p.Name = CleanRecipientName(p.Name)
	} else {
		p.Name = CleanEntityName(p.Name)
	}
	p.TaxOffice = CleanTaxOffice(p.TaxOffice)
	return p
}

// ParsePartiesResponse finds the sender/recipient object in a model answer
// and validates it, retrying once after SanitizeParties.
func ParsePartiesResponse(out string, logger *slog.Logger) (Parties, error) {
	block := rePartiesBlock.FindString(textutil.CleanResponse(out))
	if block == "" {
		return Parties{}, fmt.Errorf("no sender/recipient object in answer")
	}
	raw := []byte(block)
	if err := ValidateParties(raw); err != nil {
		cleaned, _, sErr := SanitizeParties(raw, logger)
		if sErr != nil {
			return Parties{}, sErr
		}
		if vErr := ValidateParties(cleaned); vErr != nil {
			return Parties{}, vErr
		}
		raw = cleaned
	}
	var p Parties
	if err := json.Unmarshal(raw, &p); err != nil {
		return Parties{}, fmt.Errorf("unmarshal parties: %w", err)
	}
	return p, nil
}

// SplitHeader divides header text at the recipient greeting, or at the
// middle line when there is none.
func SplitHeader(text string) (sender, recipient string) {
	if loc := reGreeting.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:])
	}
	lines := strings.Split(text, "\n")
	mid := len(lines) / 2
	return strings.Join(lines[:mid], "\n"), strings.Join(lines[mid:], "\n")
}

// CleanEntityName collapses whitespace and drops values that are too short
// or look like an address.
func CleanEntityName(name *string) *string {
	if name == nil {
		return nil
	}
	s := strings.TrimSpace(reWhitespace.ReplaceAllString(*name, " "))
	if len([]rune(s)) < 3 || textutil.Fold(s).ContainsAny(addressIndicators...) {
		return nil
	}
	return &s
}

// CleanRecipientName is CleanEntityName plus removal of the "Sayın" greeting.
func CleanRecipientName(name *string) *string {
	cleaned := CleanEntityName(name)
	if cleaned == nil {
		return nil
	}
	s := reSayin.ReplaceAllString(*cleaned, "${1}${2}")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
	if s == "" {
		return nil
	}
	return &s
}

// CleanTaxOffice drops bare labels and values shorter than three characters.
func CleanTaxOffice(office *string) *string {
	if office == nil {
		return nil
	}
	lower := strings.ToLower(strings.TrimSpace(*office))
	for _, l := range taxOfficeLabels {
		if lower == l {
			return nil
		}
	}
	if len([]rune(lower)) < 3 {
		return nil
	}
	return office
}

// RegexParty reads one side without the model: a company name with a legal
// suffix, else the first plausible name line, plus the tax office label and
// up to two address lines.
func RegexParty(text string) PartyFields {
	var p PartyFields
	lines := strings.Split(text, "\n")

	for _, re := range reCompanyNames {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if !reStartsSayin.MatchString(name) {
			p.Name = &name
			break
		}
	}

	if p.Name == nil {
		for i, ln := range lines {
			if i == 8 {
				break
			}
			ln = strings.TrimSpace(ln)
			if isNameLine(ln) {
				p.Name = &ln
				break
			}
		}
	}

	if m := reTaxOffice.FindStringSubmatch(text); m != nil {
		office := strings.TrimSpace(m[1])
		if loc := reTaxOfficeTail.FindStringIndex(office); loc != nil {
			office = strings.TrimSpace(office[:loc[0]])
		}
		p.TaxOffice = &office
	}

	var address []string
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		f := textutil.Fold(ln)
		if f.ContainsAny(addressLineKeywords...) && !f.ContainsAny(addressLineStoplist...) {
			address = append(address, ln)
		}
	}
	if len(address) > 2 {
		address = address[:2]
	}
	if len(address) > 0 {
		a := strings.Join(address, " ")
		p.Address = &a
	}
	return p
}

func isNameLine(ln string) bool {
	n := len([]rune(ln))
	if n <= 10 || n >= 100 {
		return false
	}
	if reStartsSayin.MatchString(ln) || reLeadingDigit.MatchString(ln) {
		return false
	}
	if textutil.Fold(ln).ContainsAny(nameLineStoplist...) {
		return false
	}
	first := []rune(ln)[0]
	return unicode.IsUpper(first)
}

func partiesPrompt(header string) string {
	return `Analyze this Turkish e-invoice header and extract BOTH sender (gönderici) and recipient (alıcı) information.

IMPORTANT RULES:
1. Sender is usually at the TOP or LEFT side
2. Recipient comes AFTER "SAYIN" keyword or in a separate section
3. Extract COMPLETE company names including type (A.Ş., Ltd., Şti., Ltd. Şti., San. Tic., İnş. Taah., etc.)
4. DO NOT include "SAYIN" in the recipient name (it's just a greeting)
5. Tax office (Vergi Dairesi) should be the office name only, not the label

Invoice Header Text:
` + header + `

Return ONLY this JSON structure (no markdown, no code blocks):
{
  "sender": {
    "name": "FULL sender company name WITH type",
    "address": "sender full address",
    "tax_office": "sender tax office name or null"
  },
  "recipient": {
    "name": "FULL recipient company/person name (without SAYIN)",
    "address": "recipient full address",
    "tax_office": "recipient tax office name or null"
  }
}`
}

func singlePrompt(text, role string) string {
	label := "gönderici (sender)"
	if role == "recipient" {
		label = "alıcı (recipient)"
	}
	return `Extract ` + label + ` information from this Turkish e-invoice text.

Text:
` + text + `

Return ONLY this JSON (no markdown, no code blocks):
{
  "name": "company or person name",
  "address": "address",
  "tax_office": "tax office name or null"
}

Rules:
- Extract COMPLETE company name including type (A.Ş., Ltd., Şti., etc.)
- DO NOT include "SAYIN" in name
- Tax office should be office name only, not label`
}
