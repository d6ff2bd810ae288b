// Package normalize canonicalizes user-entered text: tag labels and product slugs.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// CleanLabel is the display form of a tag label: NFC-composed, control
// characters and null bytes dropped, runs of whitespace collapsed to one space.
// Case is preserved.
func CleanLabel(s string) string {
	s = norm.NFC.String(sanitizeString(s))
	return strings.Join(strings.Fields(s), " ")
}

// LabelKey is the identity of a tag label. Two labels with the same key are the
// same tag: "Sale", " sale " and "SALE" all map to "sale".
func LabelKey(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(CleanLabel(s))
	return norm.NFC.String(folded)
}

// Slugify converts a string to a URL-safe slug.
// "Coffee Beans" -> "coffee-beans".
// "Crème Brûlée" -> "creme-brulee".
// "Mugs/Cups" -> "mugs-cups".
func Slugify(s string) string {
	// Decompose accented characters, then drop the combining marks with the rest of non-ASCII.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// sanitizeString removes null bytes and other control characters, which can
// cause issues in databases and JSON parsing. Whitespace controls become spaces.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
