package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Clean drops invalid UTF-8, composes to NFC, lowercases with full Unicode
// case mapping and turns every newline variant into a single space.
func Clean(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	// A Caser is stateful; build one per call so Clean stays goroutine-safe.
	text = cases.Lower(language.Und).String(text)
	return newlines.Replace(text)
}

// StripPunct removes every rune that is neither a word character nor
// whitespace. Word characters are letters, digits, combining marks and the
// underscore, so non-Latin scripts survive intact.
func StripPunct(text string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// FilterStopwords drops empty tokens and members of stop.
func FilterStopwords(tokens []string, stop map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := stop[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}
