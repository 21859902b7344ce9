package compliance

import (
	"errors"
	"strings"
)

// ErrInvalidPhone indicates a phone number that cannot be normalized to E.164.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone converts common US phone formats to E.164 (+1XXXXXXXXXX).
// Already-international numbers (leading +) pass through with separators
// stripped. All compliance state is keyed by the normalized form so that
// "(555) 123-4567" and "+15551234567" share one record.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidPhone
	}

	plus := strings.HasPrefix(trimmed, "+")
	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case plus && len(d) >= 8 && len(d) <= 15:
		return "+" + d, nil
	case len(d) == 10:
		return "+1" + d, nil
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d, nil
	default:
		return "", ErrInvalidPhone
	}
}
