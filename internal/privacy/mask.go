// Package privacy holds display-time obfuscation helpers. Masking never
// touches stored data; it is applied wherever a phone number reaches a
// human-facing surface.
package privacy

import "strings"

// Country code shown in masked numbers. The console serves a single locale.
const countryCode = "48"

// MaskPhone returns a display-safe form of a raw phone number: only the last
// three digits survive, the rest are starred out behind the country code.
// Inputs with fewer than nine digits are returned unchanged rather than
// producing a misleading partial mask.
func MaskPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	cleaned := digits.String()
	if len(cleaned) < 9 {
		return raw
	}

	return "+" + countryCode + " *** *** " + cleaned[len(cleaned)-3:]
}
