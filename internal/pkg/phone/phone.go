// Package phone validates and canonicalises Kenyan mobile numbers.
//
// Accepted input formats: 712345678, 0712345678, 0112345678, 254712345678,
// +254712345678, and the over-dialled 2540712345678 form where the trunk
// zero was kept after the country code. The canonical form is the local
// 10-digit notation (0712345678), which is what user documents are keyed on.
package phone

import "strings"

// Normalize strips non-digit characters and converts the number to the
// canonical local format. ok is false when the input is not a valid Kenyan
// mobile number.
func Normalize(raw string) (formatted string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 9 && digits[0] == '7':
		return "0" + digits, true
	case len(digits) == 10 && strings.HasPrefix(digits, "07"):
		return digits, true
	case len(digits) == 10 && strings.HasPrefix(digits, "01"):
		return digits, true
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return "0" + digits[3:], true
	case len(digits) == 13 && strings.HasPrefix(digits, "2540"):
		return "0" + digits[4:], true
	}
	return "", false
}
