package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// wanted reports whether path is a visible document bundle.
func wanted(path string) bool {
	return !IsHidden(path) && document.IsBundle(path)
}
