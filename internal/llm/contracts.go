package llm

import "context"

// GenerateOptions tunes one completion call. Zero values let the backend
// apply its configured defaults.
type GenerateOptions struct {
	System      string
	MaxTokens   int
	Temperature float64
}

// Generator is a text-completion backend.
type Generator interface {
	// Available reports whether the model can be reached. Implementations
	// cache the answer; a false result is not retried per call.
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// PartyFields is the model's answer for one side of a document.
type PartyFields struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	TaxOffice *string `json:"tax_office"`
}

// Parties holds both sides of a document header.
type Parties struct {
	Sender    PartyFields `json:"sender"`
	Recipient PartyFields `json:"recipient"`
}

// GeneratedPattern is a model-written regular expression.
type GeneratedPattern struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Explanation string `json:"explanation"`
}

// EntityReader extracts the two parties from header layout text.
type EntityReader interface {
	ExtractParties(ctx context.Context, headerLayout string) Parties
}
