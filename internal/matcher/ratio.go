package matcher

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio is the indel similarity of a and b scaled to 0..100:
// round(100 * 2*LCS / (len(a)+len(b))), counted in runes. Two empty strings score 100.
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	lcs := edlib.LCS(a, b)
	return int(math.Round(100 * float64(2*lcs) / float64(total)))
}

// tokenTitleScore is 100 when every word of candidate appears inside target, else [Ratio].
func tokenTitleScore(target, candidate string) int {
	for _, word := range strings.Fields(candidate) {
		if !strings.Contains(target, word) {
			return Ratio(target, candidate)
		}
	}
	return 100
}

// containedScore is 100 when needle is a substring of haystack, else [Ratio].
func containedScore(needle, haystack string) int {
	if strings.Contains(haystack, needle) {
		return 100
	}
	return Ratio(needle, haystack)
}
