package entity

import "github.com/joseph-ayodele/docextract/constants"

// FieldSchema describes one value to extract. Method-specific parameters are
// flat so schema files stay simple; Extraction returns the closed variant.
type FieldSchema struct {
	Name        string        `json:"name" yaml:"name"`
	Type        string        `json:"type,omitempty" yaml:"type,omitempty"`
	Method      string        `json:"method,omitempty" yaml:"method,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Patterns    []string      `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Keywords    []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Prompt      string        `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Region      string        `json:"region,omitempty" yaml:"region,omitempty"`
	Properties  []FieldSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *FieldSchema  `json:"items,omitempty" yaml:"items,omitempty"`
}

// FieldType returns the parsed type; unknown values fall back to string.
func (f FieldSchema) FieldType() constants.FieldType {
	t, _ := constants.ParseFieldType(f.Type)
	return t
}

// Extraction is one of RegexExtraction, FuzzyExtraction or LLMExtraction.
type Extraction interface {
	method() constants.Method
}

type RegexExtraction struct{ Patterns []string }

type FuzzyExtraction struct{ Keywords []string }

type LLMExtraction struct {
	Prompt string
	Region string
}

func (RegexExtraction) method() constants.Method { return constants.MethodRegex }
func (FuzzyExtraction) method() constants.Method { return constants.MethodFuzzy }
func (LLMExtraction) method() constants.Method   { return constants.MethodLLM }

// MethodOf reports the method of an extraction variant.
func MethodOf(e Extraction) constants.Method { return e.method() }

// Extraction builds the method variant for this field. Unknown methods
// dispatch to llm, matching the default for an empty method.
func (f FieldSchema) Extraction() Extraction {
	m, _ := constants.ParseMethod(f.Method)
	switch m {
	case constants.MethodRegex:
		return RegexExtraction{Patterns: f.Patterns}
	case constants.MethodFuzzy:
		return FuzzyExtraction{Keywords: f.Keywords}
	default:
		return LLMExtraction{Prompt: f.Prompt, Region: f.Region}
	}
}

// TableSchema selects one extracted table by shape and keywords.
type TableSchema struct {
	Name       string   `json:"name" yaml:"name"`
	Keywords   []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MinColumns int      `json:"min_columns,omitempty" yaml:"min_columns,omitempty"`
}

// TemplateSchema is a user-defined extraction template.
type TemplateSchema struct {
	TemplateName string        `json:"template_name" yaml:"template_name"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Fields       []FieldSchema `json:"fields" yaml:"fields"`
	Tables       []TableSchema `json:"tables,omitempty" yaml:"tables,omitempty"`
}
