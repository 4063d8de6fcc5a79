package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Format is the encoding of a schema file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// templateSchemaDoc describes the shape of a custom template file. Field
// definitions nest through $defs so properties and items reuse them.
const templateSchemaDoc = `{
  "type": "object",
  "required": ["template_name", "fields"],
  "properties": {
    "template_name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "fields": {"type": "array", "items": {"$ref": "#/$defs/field"}},
    "tables": {"type": "array", "items": {"$ref": "#/$defs/table"}}
  },
  "$defs": {
    "field": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "type": {"enum": ["string", "number", "boolean", "array", "object"]},
        "method": {"enum": ["regex", "fuzzy", "llm"]},
        "description": {"type": "string"},
        "patterns": {"type": "array", "items": {"type": "string"}},
        "keywords": {"type": "array", "items": {"type": "string"}},
        "prompt": {"type": "string"},
        "region": {"enum": ["top_left", "top_center", "top_right", "bottom_left", "bottom_center", "bottom_right"]},
        "properties": {"type": "array", "items": {"$ref": "#/$defs/field"}},
        "items": {"$ref": "#/$defs/field"}
      }
    },
    "table": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "keywords": {"type": "array", "items": {"type": "string"}},
        "min_columns": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compiledTemplateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("template.json", strings.NewReader(templateSchemaDoc)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile("template.json")
})

// FormatFromPath picks the schema format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.SchemaExtensions[ext]; !ok {
		return "", common.InvalidSchemaError(fmt.Sprintf("unsupported schema file extension %q", ext), nil)
	}
	if ext == "json" {
		return FormatJSON, nil
	}
	return FormatYAML, nil
}

// LoadSchema reads, parses and validates a custom template file.
func LoadSchema(path string, maxDepth int) (*entity.TemplateSchema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "read schema file", err)
	}
	return ParseSchema(b, format, maxDepth)
}

// ParseSchema decodes a schema document, checks its structure and then its
// semantics. Every failure is an INVALID_SCHEMA AppError.
func ParseSchema(data []byte, format Format, maxDepth int) (*entity.TemplateSchema, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, common.InvalidSchemaError("decode schema", err)
	}

	compiled, err := compiledTemplateSchema()
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "compile template meta-schema", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, common.InvalidSchemaError("schema structure", err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, common.InvalidSchemaError("re-encode schema", err)
	}
	var schema entity.TemplateSchema
	if err := json.Unmarshal(normalized, &schema); err != nil {
		return nil, common.InvalidSchemaError("decode schema", err)
	}
	if err := ValidateSchema(schema, maxDepth); err != nil {
		return nil, err
	}
	return &schema, nil
}

// decodeDocument returns the document as generic JSON values so the same
// meta-schema applies to both formats.
func decodeDocument(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		// yaml.v3 decodes integers as int; round-trip so numbers look like JSON's.
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		data = b
		doc = nil
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateSchema checks what the meta-schema cannot: name syntax and
// uniqueness, method parameters, and nesting depth.
func ValidateSchema(schema entity.TemplateSchema, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = 8
	}
	v := common.NewValidator()
	v.Field("template_name", schema.TemplateName, common.Required)
	if len(schema.Fields) == 0 && len(schema.Tables) == 0 {
		v.Add("fields", nil, "schema defines no fields and no tables")
	}
	validateFields(v, "fields", schema.Fields, 1, maxDepth)

	seen := make(map[string]struct{}, len(schema.Tables))
	for i, t := range schema.Tables {
		path := fmt.Sprintf("tables[%d]", i)
		v.Field(path+".name", t.Name, common.Identifier)
		if _, dup := seen[t.Name]; dup {
			v.Add(path+".name", t.Name, "duplicate table name")
		}
		seen[t.Name] = struct{}{}
		if t.MinColumns < 0 {
			v.Add(path+".min_columns", t.MinColumns, "must not be negative")
		}
	}

	if v.HasErrors() {
		return common.InvalidSchemaError(v.ErrorMessage(), v.Error())
	}
	return nil
}

func validateFields(v *common.Validator, path string, fields []entity.FieldSchema, depth, maxDepth int) {
	if len(fields) == 0 {
		return
	}
	if depth > maxDepth {
		v.Add(path, depth, fmt.Sprintf("nesting deeper than %d levels", maxDepth))
		return
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		p := fmt.Sprintf("%s[%d]", path, i)
		validateField(v, p, f, depth, maxDepth)
		if _, dup := seen[f.Name]; dup {
			v.Add(p+".name", f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
	}
}

func validateField(v *common.Validator, path string, f entity.FieldSchema, depth, maxDepth int) {
	v.Field(path+".name", f.Name, common.Identifier)
	if _, ok := constants.ParseFieldType(f.Type); !ok {
		v.Add(path+".type", f.Type, "unknown type")
	}
	if _, ok := constants.ParseMethod(f.Method); !ok {
		v.Add(path+".method", f.Method, "unknown method")
	}
	if f.Region != "" && !constants.IsRegion(f.Region) {
		v.Add(path+".region", f.Region, "unknown region")
	}

	switch x := f.Extraction().(type) {
	case entity.RegexExtraction:
		if len(x.Patterns) == 0 {
			v.Add(path+".patterns", nil, "regex fields need at least one pattern")
		}
	case entity.FuzzyExtraction:
		if len(x.Keywords) == 0 {
			v.Add(path+".keywords", nil, "fuzzy fields need at least one keyword")
		}
	}

	validateFields(v, path+".properties", f.Properties, depth+1, maxDepth)
	if f.Items != nil {
		validateFields(v, path+".items", []entity.FieldSchema{*f.Items}, depth+1, maxDepth)
	}
}

// PatternWarnings lists regex patterns that do not compile. They do not make
// a schema invalid; the matcher skips them at extraction time.
func PatternWarnings(schema entity.TemplateSchema) []common.ValidationError {
	v := common.NewValidator()
	var walk func(path string, fields []entity.FieldSchema)
	walk = func(path string, fields []entity.FieldSchema) {
		for i, f := range fields {
			p := fmt.Sprintf("%s[%d]", path, i)
			if len(f.Patterns) > 0 {
				v.Field(p+".patterns", f.Patterns, common.CompilablePatterns)
			}
			walk(p+".properties", f.Properties)
			if f.Items != nil {
				walk(p+".items", []entity.FieldSchema{*f.Items})
			}
		}
	}
	walk("fields", schema.Fields)
	return v.Errors()
}
