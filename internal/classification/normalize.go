package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds compatibility characters, lowercases, trims and collapses
// internal whitespace.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ratio is the SequenceMatcher similarity of two normalized strings in [0, 1].
func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// wordPattern compiles a literal term into a whole-word matcher. A term that
// starts or ends with punctuation is delimited there by a non-word character
// or the end of the text, since \b needs a word character on one side.
func wordPattern(term string) (*regexp.Regexp, error) {
	if term == "" {
		return nil, fmt.Errorf("empty term")
	}
	start, end := `\b`, `\b`
	if !isWordByte(term[0]) {
		start = `(?:^|\W)`
	}
	if !isWordByte(term[len(term)-1]) {
		end = `(?:\W|$)`
	}
	return regexp.Compile(start + regexp.QuoteMeta(term) + end)
}

func isWordByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}
