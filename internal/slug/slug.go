// Package slug derives URL-safe identifiers from free-text titles.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Derive lowercases the title, collapses every run of characters outside
// [a-z0-9] into a single hyphen and strips leading/trailing hyphens.
// Deterministic and idempotent; uniqueness is enforced at write time by
// the repository, not here.
func Derive(title string) string {
	s := strings.ToLower(title)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
