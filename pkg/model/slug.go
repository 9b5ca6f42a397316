package model

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a canonical slug from a display name: lowercase, runs of
// non-alphanumerics collapsed to a single hyphen, leading and trailing
// hyphens trimmed. "Product Hunt!! 2024" becomes "product-hunt-2024".
func Slugify(name string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
