package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// partyFieldNames are the only keys kept for one side of the header.
var partyFieldNames = []string{"name", "address", "tax_office"}

// PartiesJSONSchema returns the JSON Schema the combined sender/recipient
// answer must satisfy.
func PartiesJSONSchema() map[string]any {
	side := func() map[string]any {
		props := make(map[string]any, len(partyFieldNames))
		for _, k := range partyFieldNames {
			props[k] = nullableString()
		}
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
		}
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"sender", "recipient"},
		"properties": map[string]any{
			"sender":    side(),
			"recipient": side(),
		},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

var partiesSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return CompileSchema(PartiesJSONSchema())
})

// CompileSchema compiles a schema held as a generic map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := CompileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validateWith(schema, data)
}

// ValidateParties checks a combined sender/recipient answer.
func ValidateParties(data []byte) error {
	schema, err := partiesSchema()
	if err != nil {
		return err
	}
	return validateWith(schema, data)
}

func validateWith(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
