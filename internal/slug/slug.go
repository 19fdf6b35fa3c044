// Package slug builds and resolves the public URL segment for a recipe.
//
// A slug is the slugified title followed by the recipe's UUID, e.g.
// "tarte-aux-pommes-7f9c24e8-...". Embedding the ID makes resolution a direct
// lookup; the title part is cosmetic and never consulted when resolving.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stripDiacritics decomposes to NFD and drops combining marks, so "crème
// brûlée" slugifies to "creme-brulee".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases text, strips diacritics, collapses every run of
// characters outside [a-z0-9] into a single hyphen and trims leading and
// trailing hyphens.
func Slugify(text string) string {
	lowered := strings.ToLower(text)
	if folded, _, err := transform.String(stripDiacritics, lowered); err == nil {
		lowered = folded
	}
	return strings.Trim(nonAlnum.ReplaceAllString(lowered, "-"), "-")
}

// Make builds the public slug for a recipe from its title and ID.
func Make(title, id string) string {
	s := Slugify(title)
	if s == "" {
		return id
	}
	return s + "-" + id
}

// ParseID extracts the recipe ID embedded in a slug. The ID is the trailing
// 36-character UUID; everything before it is ignored.
func ParseID(s string) (string, error) {
	const uuidLen = 36
	if len(s) < uuidLen {
		return "", fmt.Errorf("slug %q is too short to contain a recipe ID", s)
	}
	candidate := s[len(s)-uuidLen:]
	if _, err := uuid.Parse(candidate); err != nil {
		return "", fmt.Errorf("slug %q does not end in a recipe ID: %w", s, err)
	}
	return candidate, nil
}
