// Package validation checks and normalizes user-supplied credentials and
// free-form input before it is submitted. Every function is pure and safe for
// concurrent use.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

const (
	// MaxEmailLength is the longest address accepted, measured after trimming
	MaxEmailLength = 254

	MinPasswordLength = 8
	MaxPasswordLength = 128

	// DefaultMaxInputLength applies to ValidateInput
	DefaultMaxInputLength = 1000
)

// ErrEmailRequired is returned by SanitizeEmail for absent input
var ErrEmailRequired = errors.New("Email is required")

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// Rejected anywhere in an email address, case-sensitive
var emailBlacklist = []string{"<", ">", "script", "javascript", "\x00", "\n", "\r"}

// Length reports the length of s in UTF-16 code units, the unit browser form
// fields count in. Invalid UTF-8 bytes count as one unit each.
func Length(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// trim removes leading and trailing white space, including the U+FEFF byte
// order mark that browsers treat as white space
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// ValidateEmail reports whether input, once trimmed, is a plausible and safe
// email address.
func ValidateEmail(input string) bool {
	email := trim(input)
	if email == "" || Length(email) > MaxEmailLength {
		return false
	}
	if strings.Contains(email, "..") || strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") {
		return false
	}
	for _, bad := range emailBlacklist {
		if strings.Contains(email, bad) {
			return false
		}
	}
	return emailPattern.MatchString(email)
}

// ValidatePassword reports whether input is 8 to 128 characters of letters,
// digits and @$!%*?&, with at least one letter and one digit.
func ValidatePassword(input string) bool {
	n := Length(input)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return false
	}
	return passwordCharset.MatchString(input) &&
		hasLetter.MatchString(input) &&
		hasDigit.MatchString(input)
}

// SanitizeEmail trims and lower-cases input. It does not check the format;
// combine it with ValidateEmail. Lower-casing follows Unicode simple case
// mapping, so U+0130 becomes a plain "i" without the combining dot a browser
// would keep; such input never passes ValidateEmail either way.
func SanitizeEmail(input string) (string, error) {
	if input == "" {
		return "", ErrEmailRequired
	}
	return strings.ToLower(trim(input)), nil
}

// ValidateInput reports whether input is non-empty and at most
// DefaultMaxInputLength characters long.
func ValidateInput(input string) bool {
	return ValidateInputLength(input, DefaultMaxInputLength)
}

// ValidateInputLength reports whether input is non-empty and at most
// maxLength characters long.
func ValidateInputLength(input string, maxLength int) bool {
	if input == "" {
		return false
	}
	return Length(input) <= maxLength
}
