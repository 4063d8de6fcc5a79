package constants

import "strings"

// FieldType is the target type a field value is coerced into.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"

	// Template-only types.
	FieldTypeAmount FieldType = "amount" // {amount, currency}
	FieldTypeDate   FieldType = "date"   // kept as the matched text
)

var allFieldTypes = []FieldType{
	FieldTypeString,
	FieldTypeNumber,
	FieldTypeBoolean,
	FieldTypeArray,
	FieldTypeObject,
	FieldTypeAmount,
	FieldTypeDate,
}

// ParseFieldType maps a schema value to a FieldType. Empty input means string.
func ParseFieldType(input string) (FieldType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return FieldTypeString, true
	}
	for _, t := range allFieldTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return FieldTypeString, false
}

// Method selects how a field value is located in the document.
type Method string

const (
	MethodRegex Method = "regex"
	MethodFuzzy Method = "fuzzy"
	MethodLLM   Method = "llm"
)

// ParseMethod maps a schema value to a Method. Empty input means llm.
func ParseMethod(input string) (Method, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return MethodLLM, true
	case string(MethodRegex):
		return MethodRegex, true
	case string(MethodFuzzy):
		return MethodFuzzy, true
	case string(MethodLLM):
		return MethodLLM, true
	}
	return MethodLLM, false
}

// TaxIDType tells which Turkish tax identifier was found.
type TaxIDType string

const (
	TaxIDVKN  TaxIDType = "VKN"  // 10 digits, companies
	TaxIDTCKN TaxIDType = "TCKN" // 11 digits, individuals
)
