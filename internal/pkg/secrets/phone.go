// Package secrets holds the crypto and normalization primitives used by the
// directory: phone normalization and masking, keyed hashing for OTP codes and
// phone numbers, constant-time comparison, and token/OTP generation.
package secrets

import "strings"

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizePhone canonicalizes a raw phone number into +<digits> form.
// Separators are stripped, a leading "00" becomes "+", and numbers without a
// "+" prefix get defaultCountryCode prepended. Returns "" when the result is
// not "+" followed by 10-15 digits; callers must treat "" as invalid.
func NormalizePhone(raw, defaultCountryCode string) string {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separator, drop
		default:
			return ""
		}
	}

	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if !strings.HasPrefix(s, "+") {
		s = defaultCountryCode + s
	}

	digits := strings.TrimPrefix(s, "+")
	if !strings.HasPrefix(s, "+") || len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// MaskPhone hides everything except the last four digits of a normalized
// phone number.
func MaskPhone(phone string) string {
	last4 := PhoneLast4(phone)
	if last4 == "" {
		return ""
	}
	return "*******" + last4
}

// PhoneLast4 returns the last four digits of a phone number, or "" when the
// number is shorter than four digits.
func PhoneLast4(phone string) string {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// MaskEmail keeps the first two characters of the local part plus the full
// domain. Local parts of two characters or fewer are masked entirely.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + domain
}
