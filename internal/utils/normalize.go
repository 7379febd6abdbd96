package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lower-cases s, trims it and collapses inner whitespace runs to a
// single space.
func Normalize(s string) string {
	// Casers carry state, so one is built per call.
	lower := cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(lower), " ")
}

// Tokenize normalizes s and splits it into word tokens. Punctuation separates
// tokens, except a '.' between two digits and a ',' followed by a two or three
// digit group, so "2.5cr" and "50,00,000" survive as single numeric tokens
// ("50,00,000" becomes "5000000") while "1,2" stays two tokens.
func Tokenize(s string) []string {
	runes := []rune(Normalize(s))
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' && betweenDigits(runes, i):
			b.WriteRune(r)
		case r == ',' && digitGroupSeparator(runes, i):
			// grouping comma, dropped
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Normalize(s), Normalize(substr))
}

func betweenDigits(runes []rune, i int) bool {
	return i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

// digitGroupSeparator reports whether the ',' at i follows a digit and is
// followed by exactly two or three digits.
func digitGroupSeparator(runes []rune, i int) bool {
	if i == 0 || !unicode.IsDigit(runes[i-1]) {
		return false
	}
	n := 0
	for j := i + 1; j < len(runes) && unicode.IsDigit(runes[j]); j++ {
		n++
	}
	return n == 2 || n == 3
}
