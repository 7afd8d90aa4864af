package utils

import (
	"strings"
)

// NormalizePlate canonicalizes a raw plate read: uppercase with everything
// except A-Z and 0-9 stripped. Returns "" when nothing usable remains.
func NormalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
