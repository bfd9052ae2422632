// Package postal resolves Brazilian postal codes (CEP) into addresses and
// keeps a form's address fields in sync with the code the user types.
package postal

import (
	"fmt"
	"strings"
)

const (
	// CodeLength is the number of digits in a CEP.
	CodeLength = 8
	// MaskedLength is the length of a masked CEP ("13150-000").
	MaskedLength = 9
)

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask formats s as a CEP while it is being typed: non-digits are dropped,
// a hyphen follows the fifth digit once a sixth exists, and the result never
// exceeds MaskedLength characters.
func Mask(s string) string {
	d := Digits(s)
	if len(d) > CodeLength {
		d = d[:CodeLength]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// FormatError describes a CEP that cannot be valid.
type FormatError struct {
	Digits string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid postal code %q: %s", e.Digits, e.Reason)
}

// ValidateFormat checks that digits is exactly CodeLength digits and not a
// single repeated digit.
func ValidateFormat(digits string) error {
	if len(digits) != CodeLength || Digits(digits) != digits {
		return &FormatError{Digits: digits, Reason: fmt.Sprintf("must have exactly %d digits", CodeLength)}
	}
	if strings.Count(digits, digits[:1]) == CodeLength {
		return &FormatError{Digits: digits, Reason: "repeated digits"}
	}
	return nil
}
