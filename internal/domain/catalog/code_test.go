package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sales Rank: Current", "salesrankcurrent"},
		{"  Buy Box (30 days)  ", "buybox30days"},
		{"Pick & Pack", "pickpack"},
		{"", ""},
		{"---", ""},
		{"Größe", "gre"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCleanProductCode(t *testing.T) {
	t.Run("null markers become empty", func(t *testing.T) {
		for _, v := range []string{"nan", "NaN", "None", "NULL", "  null "} {
			assert.Equal(t, "", CleanProductCode(v), v)
		}
	})

	t.Run("trailing .0 is stripped", func(t *testing.T) {
		assert.Equal(t, "840012345678", CleanProductCode("840012345678.0"))
	})

	t.Run("case and punctuation preserved", func(t *testing.T) {
		assert.Equal(t, "ab-12/x", CleanProductCode("  ab-12/x "))
	})

	t.Run("only a trailing .0 is touched", func(t *testing.T) {
		assert.Equal(t, "1.05", CleanProductCode("1.05"))
	})
}

func TestNormalizeCode(t *testing.T) {
	t.Run("upper-case alphanumeric only", func(t *testing.T) {
		key, ok := NormalizeCode(" ab-12/x ")
		assert.True(t, ok)
		assert.Equal(t, "AB12X", key)
	})

	t.Run("scientific notation is expanded", func(t *testing.T) {
		key, ok := NormalizeCode("8.40012E+11")
		assert.True(t, ok)
		assert.Equal(t, "840012000000", key)
	})

	t.Run("trailing .0 is stripped before cleanup", func(t *testing.T) {
		key, ok := NormalizeCode("12345.0")
		assert.True(t, ok)
		assert.Equal(t, "12345", key)
	})

	t.Run("empty result is no key", func(t *testing.T) {
		for _, v := range []string{"", "   ", "--", "#"} {
			key, ok := NormalizeCode(v)
			assert.False(t, ok, v)
			assert.Equal(t, "", key)
		}
	})
}

func TestCodeKeyAsymmetry(t *testing.T) {
	t.Run("all-digit codes agree", func(t *testing.T) {
		for _, v := range []string{"012345678905", "840012345678.0", "42"} {
			key, ok := NormalizeCode(v)
			assert.True(t, ok)
			assert.Equal(t, strings.ToUpper(CleanProductCode(v)), key, v)
		}
	})

	t.Run("alphabetic codes agree except for case", func(t *testing.T) {
		key, _ := NormalizeCode("b00abc")
		assert.Equal(t, "b00abc", CleanProductCode("b00abc"))
		assert.Equal(t, "B00ABC", key)
	})

	t.Run("punctuation makes the keys differ", func(t *testing.T) {
		for _, v := range []string{"AB-12", "X.Y", "12 34"} {
			key, _ := NormalizeCode(v)
			assert.NotEqual(t, CleanProductCode(v), key, v)
		}
	})
}
