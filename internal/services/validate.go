package services

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// minPhoneDigits is the shortest accepted phone number.
const minPhoneDigits = 10

// NormalizePhone strips '+' and spaces. The result is what gets stored.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || r == ' ' {
			return -1
		}
		return r
	}, s)
}

// ValidPhone reports whether s, after stripping '+' and spaces, is all ASCII
// digits and at least ten long. "+251 911223344" is valid, "12345" is not.
func ValidPhone(s string) bool {
	p := NormalizePhone(s)
	if len(p) < minPhoneDigits {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}

// ValidName reports whether the trimmed name has at least two characters.
func ValidName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= 2
}

// keyword folds s for case-insensitive command comparison ("SKIP", "Confirm").
// A Caser is stateful, so one is built per call.
func keyword(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
