package catalog

import (
	"strconv"
	"strings"
)

// ParseNumber keeps only digits and dots of raw and parses the rest.
// Anything unparsable becomes 0; currency symbols, thousands separators
// and percent signs are dropped along the way.
func ParseNumber(raw string) float64 {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizePercent converts "15"-style percentages to fractions.
// Values already in [0,1] are returned unchanged.
func NormalizePercent(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// ParseFieldValue coerces a raw cell according to the kind of f
func ParseFieldValue(f StandardField, raw string) float64 {
	v := ParseNumber(raw)
	if f.Kind() == KindPercent {
		v = NormalizePercent(v)
	}
	return v
}
