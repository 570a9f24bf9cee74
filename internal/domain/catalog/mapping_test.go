package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumns(t *testing.T) {
	t.Run("exact matches ignore case and punctuation", func(t *testing.T) {
		headers := []string{"asin", "PARENT", "brand", "Title", "Colour", "Sales Rank", "Buy Box"}

		m := DetectColumns(headers, DefaultMainPatterns())

		assert.Equal(t, "asin", m[FieldASIN])
		assert.Equal(t, "PARENT", m[FieldParent])
		assert.Equal(t, "brand", m[FieldBrand])
		assert.Equal(t, "Title", m[FieldTitle])
		assert.Equal(t, "Colour", m[FieldColor])
		assert.Equal(t, "Sales Rank", m[FieldSalesRank])
		assert.Equal(t, "Buy Box", m[FieldBuyBox])
		assert.Len(t, m, 7)
	})

	t.Run("partial pass claims remaining headers", func(t *testing.T) {
		table := PatternTable{
			{FieldCost, []string{"Cost"}},
			{FieldMSRP, []string{"MSRP"}},
		}
		m := DetectColumns([]string{"Supplier Cost (USD)", "MSRP"}, table)

		assert.Equal(t, "Supplier Cost (USD)", m[FieldCost])
		assert.Equal(t, "MSRP", m[FieldMSRP])
	})

	t.Run("exact pass wins over earlier partial candidates", func(t *testing.T) {
		table := PatternTable{
			{FieldRatingCount, []string{"Rating Count"}},
			{FieldRatingCountChild, []string{"Rating Count (Child)"}},
		}
		m := DetectColumns([]string{"Rating Count (Child)", "Rating Count Total"}, table)

		assert.Equal(t, "Rating Count (Child)", m[FieldRatingCountChild])
		assert.Equal(t, "Rating Count Total", m[FieldRatingCount])
	})

	t.Run("each header is used at most once", func(t *testing.T) {
		table := PatternTable{
			{FieldBuyBox, []string{"Buy Box"}},
			{FieldBuyBox30, []string{"Buy Box"}},
		}
		m := DetectColumns([]string{"Buy Box"}, table)

		assert.Equal(t, "Buy Box", m[FieldBuyBox])
		_, ok := m[FieldBuyBox30]
		assert.False(t, ok)
	})

	t.Run("first header wins among equal candidates", func(t *testing.T) {
		m := DetectColumns([]string{"UPC", "EAN"}, DefaultCostPatterns())
		assert.Equal(t, "UPC", m[FieldImportedCode])
	})

	t.Run("blank headers never match", func(t *testing.T) {
		m := DetectColumns([]string{"", "###"}, DefaultMainPatterns())
		assert.Empty(t, m)
	})

	t.Run("unmatched fields are reported missing", func(t *testing.T) {
		table := DefaultCostPatterns()
		m := DetectColumns([]string{"UPC", "Cost"}, table)
		assert.Equal(t, []StandardField{FieldMSRP}, m.Missing(table))
	})
}

func TestDetectColumnsIdempotent(t *testing.T) {
	headers := []string{"Brand", "Parent ASIN", "ASIN", "Product Codes: UPC", "Title", "Color",
		"Sales Rank: Current", "Buy Box: Current", "Buy Box: 90 days avg.", "FBA Pick&Pack Fee",
		"Referral Fee %", "Reviews: Rating Count", "Unrelated"}
	table := DefaultMainPatterns()
	before := DefaultMainPatterns()

	first := DetectColumns(headers, table)
	second := DetectColumns(headers, table)

	assert.Equal(t, first, second)
	assert.Equal(t, before, table, "pattern table must not be mutated")
	assert.Equal(t, "Product Codes: UPC", first[FieldImportedCode])
	assert.Equal(t, "Buy Box: 90 days avg.", first[FieldBuyBox90])
}

func TestColumnMappingOverride(t *testing.T) {
	m := ColumnMapping{FieldASIN: "ASIN", FieldTitle: "Name"}

	out := m.Override(map[StandardField]string{
		FieldColor: "Variant Colour",
		FieldTitle: "",
	})

	assert.Equal(t, "Variant Colour", out[FieldColor])
	_, hasTitle := out[FieldTitle]
	assert.False(t, hasTitle)
	assert.Equal(t, "Name", m[FieldTitle], "original mapping is untouched")
}

func TestPatternTableWithOverrides(t *testing.T) {
	base := DefaultCostPatterns()

	out := base.WithOverrides(map[StandardField][]string{
		FieldCost:  {"Landed Cost"},
		FieldBrand: {"Vendor"},
	})

	require.Len(t, out, 4)
	assert.Equal(t, []string{"Landed Cost"}, out[1].Aliases)
	assert.Equal(t, FieldBrand, out[3].Field)
	assert.Equal(t, DefaultCostPatterns(), base)
}

func TestParseField(t *testing.T) {
	f, ok := ParseField("buy_box_30")
	assert.True(t, ok)
	assert.Equal(t, FieldBuyBox30, f)

	f, ok = ParseField("Referral Fee %")
	assert.True(t, ok)
	assert.Equal(t, FieldReferralFeePct, f)

	_, ok = ParseField("warehouse")
	assert.False(t, ok)
}
