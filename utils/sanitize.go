package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// SanitizeInput keeps letters, digits, spaces, dashes and underscores.
func SanitizeInput(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, input)
}

var rollNumberPattern = regexp.MustCompile(`^[12][0-9][A-Za-z]{2}[0-9]{2}$`)

// NormalizeRollNumber validates a portal roll number such as 21CS01 and
// upper-cases its letters.
func NormalizeRollNumber(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !rollNumberPattern.MatchString(input) {
		return "", false
	}
	return strings.ToUpper(input), true
}

var classIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{2,16}$`)

// NormalizeClassID validates a class id such as 24AB.
func NormalizeClassID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !classIDPattern.MatchString(input) {
		return "", false
	}
	return strings.ToUpper(input), true
}
