package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxSKUStem = 12

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// GenerateSKU builds a stock keeping unit from a product name, e.g.
// "BABY-LOTION-3F9A1C" or, with prefix "DOVE", "DOVE-BABY-LOTION-3F9A1C".
// The trailing six hex characters come from a random UUID.
func GenerateSKU(prefix, name string) string {
	stem := slugUpper(name, maxSKUStem)
	if stem == "" {
		stem = "ITEM"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])

	parts := make([]string, 0, 3)
	if p := slugUpper(prefix, maxSKUStem); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, stem, suffix)
	return strings.Join(parts, "-")
}

func slugUpper(s string, maxLen int) string {
	s = nonAlnum.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	return s
}
