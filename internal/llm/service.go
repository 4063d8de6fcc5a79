// Package llm wraps a generative model behind the few operations the
// extractors need: single-field answers, sender/recipient entities and
// regex generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

const (
	fieldTemperature = 0.1
	regexTemperature = 0.2

	valueTokens     = 128
	jsonTokens      = 512
	jsonArrayTokens = 1024
	regexTokens     = 128
)

// ErrNoPattern is returned when the model's answer is not a usable regex.
var ErrNoPattern = errors.New("llm: no usable pattern")

var (
	jsonHints    = []string{"json", "array", "list", "object"}
	reFenced     = regexp.MustCompile("```(?:regex|python)?\\s*([^`]+)```")
	proseOpeners = []string{"this", "the", "note", "explanation", "example"}
)

const regexMetachars = `\.^$*+?{}[]()|-`

// Service is the model-facing entry point used by the matchers and the
// template mapper.
type Service struct {
	gen    Generator
	logger *slog.Logger
}

func NewService(gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, logger: logger}
}

// Available reports whether a backend is configured and reachable.
func (s *Service) Available(ctx context.Context) bool {
	return s != nil && s.gen != nil && s.gen.Available(ctx)
}

// Generate forwards to the backend, failing fast when it is unavailable.
func (s *Service) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if !s.Available(ctx) {
		return "", common.ErrModelUnavailable
	}
	return s.gen.Generate(ctx, prompt, opts)
}

// ExtractField asks for a single value from text. An empty answer means
// the value was not found.
func (s *Service) ExtractField(ctx context.Context, text, prompt string) (string, error) {
	if !s.Available(ctx) {
		return "", common.ErrModelUnavailable
	}
	full, maxTokens := FieldPrompt(text, prompt)
	out, err := s.gen.Generate(ctx, full, GenerateOptions{MaxTokens: maxTokens, Temperature: fieldTemperature})
	if err != nil {
		return "", fmt.Errorf("extract field: %w", err)
	}
	out = strings.TrimSpace(strings.Trim(strings.Trim(out, `"`), `'`))
	return textutil.CleanResponse(out), nil
}

// FieldPrompt builds the full prompt for a single-field question and
// returns the completion budget that fits the expected answer.
func FieldPrompt(text, prompt string) (string, int) {
	lower := strings.ToLower(prompt)
	wantsJSON := false
	for _, h := range jsonHints {
		if strings.Contains(lower, h) {
			wantsJSON = true
			break
		}
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	if !wantsJSON {
		b.WriteString("Return only the extracted value, nothing else.")
		return b.String(), valueTokens
	}
	b.WriteString("IMPORTANT: Return ONLY raw JSON without markdown code blocks (no ```json or ```).\n")
	b.WriteString("Just the pure JSON array or object.")

	if strings.Contains(lower, "array") && strings.Contains(lower, "all") {
		return b.String(), jsonArrayTokens
	}
	return b.String(), jsonTokens
}

// GenerateRegex asks the model for a pattern matching description.
func (s *Service) GenerateRegex(ctx context.Context, description string) (*GeneratedPattern, error) {
	if !s.Available(ctx) {
		return nil, common.ErrModelUnavailable
	}
	rid := common.RequestIDFromContext(ctx)
	prompt := "Generate a regex pattern for: " + description + "\n\n" +
		"Return ONLY the regex pattern, nothing else.\n" +
		"Do not use markdown code blocks.\n" +
		"Pattern:"

	out, err := s.gen.Generate(ctx, prompt, GenerateOptions{MaxTokens: regexTokens, Temperature: regexTemperature})
	if err != nil {
		return nil, fmt.Errorf("generate regex: %w", err)
	}

	pattern := CleanPattern(out)
	if reason := rejectPattern(pattern, description); reason != "" {
		s.logger.Debug("llm.regex.rejected", "req_id", rid, "reason", reason, "pattern", pattern)
		return nil, fmt.Errorf("%w: %s", ErrNoPattern, reason)
	}
	return &GeneratedPattern{
		Pattern:     pattern,
		Description: description,
		Explanation: "Pattern generated for: " + description,
	}, nil
}

// CleanPattern strips the labels, fences, quotes and prose a model tends to
// wrap around a bare pattern.
func CleanPattern(out string) string {
	p := strings.TrimSpace(out)
	if strings.HasPrefix(strings.ToLower(p), "pattern:") {
		p = strings.TrimSpace(p[len("pattern:"):])
	}
	if strings.Contains(p, "```") {
		if m := reFenced.FindStringSubmatch(p); m != nil {
			p = strings.TrimSpace(m[1])
		} else if parts := strings.Split(p, "```"); len(parts) >= 3 {
			p = strings.TrimSpace(parts[1])
		}
	}
	p = strings.TrimSpace(strings.Trim(strings.Trim(strings.Trim(p, "`"), `"`), `'`))

	if strings.Contains(p, "\n") {
		lines := strings.Split(p, "\n")
		picked := strings.TrimSpace(lines[0])
		for _, ln := range lines {
			ln = strings.TrimSpace(ln)
			if ln != "" && !startsWithAny(strings.ToLower(ln), proseOpeners) {
				picked = ln
				break
			}
		}
		p = picked
	}
	return p
}

func rejectPattern(p, description string) string {
	switch {
	case len([]rune(p)) < 2:
		return "too short"
	case strings.EqualFold(p, description):
		return "echoes description"
	case !strings.ContainsAny(p, regexMetachars) && len([]rune(p)) > 10:
		return "no regex syntax"
	}
	if _, err := regexp.Compile(p); err != nil {
		return "does not compile"
	}
	return ""
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
