package shared

import (
	"regexp"
	"strings"
)

var (
	forbiddenChars = regexp.MustCompile(`[/\\:*?"<>|]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Normalize replaces characters that are illegal in file paths with a space,
// collapses whitespace runs to a single space and trims the result.
//
// Comparisons lowercase the result on top of this.
func Normalize(s string) string {
	s = forbiddenChars.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeLower is [Normalize] followed by lowercasing, the form used for text comparison.
func NormalizeLower(s string) string {
	return strings.ToLower(Normalize(s))
}
