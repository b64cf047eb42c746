package authflow

import "strings"

// Display grouping for Kazakhstan mobile numbers: XXX-XXX-XX-XX.
var groupEnds = [...]int{3, 6, 8, 10}

// FormatPhone normalizes free-form phone input into the display
// grouping. Non-digits are stripped, the first digit is forced to 7
// and input is truncated to 10 significant digits. Formatting an
// already-formatted string yields the same string.
func FormatPhone(raw string) string {
	digits := []byte(digitsOf(raw))
	if len(digits) == 0 {
		return ""
	}
	if digits[0] != '7' {
		digits[0] = '7'
	}
	if len(digits) > 10 {
		digits = digits[:10]
	}

	var parts []string
	start := 0
	for _, end := range groupEnds {
		if start >= len(digits) {
			break
		}
		if end > len(digits) {
			end = len(digits)
		}
		parts = append(parts, string(digits[start:end]))
		start = end
	}
	return strings.Join(parts, "-")
}

// PhoneKey derives the canonical lookup key from a display string by
// prefixing the country code onto the 10-digit group, e.g.
// "777-123-45-67" -> "77771234567".
func PhoneKey(display string) string {
	return "7" + digitsOf(display)
}

// ValidPhoneKey reports whether key is a complete canonical key:
// exactly 11 digits and a Kazakhstan mobile prefix.
func ValidPhoneKey(key string) bool {
	return len(key) == 11 && strings.HasPrefix(key, "77") && digitsOf(key) == key
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
