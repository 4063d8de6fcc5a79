package constants

import "strings"

// BundleExtensions are the file extensions treated as document bundles.
var BundleExtensions = map[string]struct{}{
	"json": {},
}

// SchemaExtensions are the file extensions accepted for custom template schemas.
var SchemaExtensions = map[string]struct{}{
	"json": {},
	"yaml": {},
	"yml":  {},
}

// ResultSuffix names the result file written for a bundle: invoice.json
// becomes invoice.result.json. Such files are never picked up as bundles.
const ResultSuffix = ".result.json"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
