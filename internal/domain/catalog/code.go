package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var scientificPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?[eE][+-]?\d+$`)

// Canonicalize lowercases s and drops every character outside [a-z0-9].
// It is used to compare headers and aliases regardless of spacing,
// punctuation and case.
func Canonicalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// CleanProductCode trims a product identifier, maps spreadsheet null
// markers to "" and drops a trailing ".0" export artifact. Case and
// punctuation are preserved; the result is the dedup and cost-join key.
func CleanProductCode(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(s, ".0"))
}

// NormalizeCode reduces a product identifier to an upper-case
// alphanumeric key used for stock-file joins. Scientific notation
// ("8.40E+11") is expanded to its integer digits first. The boolean is
// false when nothing usable remains, so empty codes never join.
func NormalizeCode(v string) (string, bool) {
	s := strings.TrimSpace(v)
	if scientificPattern.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			s = d.StringFixed(0)
		}
	}
	s = strings.TrimSuffix(s, ".0")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	key := strings.ToUpper(sb.String())
	if key == "" {
		return "", false
	}
	return key, true
}
