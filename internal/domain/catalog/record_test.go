package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$10.00", 10},
		{"50,000", 50000},
		{"15%", 15},
		{"", 0},
		{"n/a", 0},
		{"1.2.3", 0},
		{"-4.5", 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestProductRecordSet(t *testing.T) {
	t.Run("percentages are stored as fractions", func(t *testing.T) {
		r := NewProductRecord("main.csv", 2)
		r.Set(FieldReferralFeePct, "15")
		assert.InDelta(t, 0.15, r.ReferralFeePct, 1e-9)

		r.Set(FieldReferralFeePct, "0.15")
		assert.InDelta(t, 0.15, r.ReferralFeePct, 1e-9)

		r.Set(FieldAmzInStockPct, "87%")
		assert.InDelta(t, 0.87, r.AmzInStockPct, 1e-9)
	})

	t.Run("text fields keep the raw value", func(t *testing.T) {
		r := NewProductRecord("main.csv", 2)
		r.Set(FieldTitle, "Widget, blue")
		r.Set(FieldSalesBadge, "#1 Best Seller")
		assert.Equal(t, "Widget, blue", r.Title)
		assert.Equal(t, "#1 Best Seller", r.SalesBadge)
	})

	t.Run("stock fields stay unset until written", func(t *testing.T) {
		r := NewProductRecord("main.csv", 2)
		assert.Nil(t, r.InStock)
		assert.Equal(t, "", r.Value(FieldInStock))

		r.Set(FieldInStock, "12")
		require.NotNil(t, r.InStock)
		assert.Equal(t, "12", r.Value(FieldInStock))
	})

	t.Run("cost and msrp default to zero", func(t *testing.T) {
		r := NewProductRecord("main.csv", 2)
		assert.Equal(t, 0.0, r.Cost)
		assert.Equal(t, 0.0, r.MSRP)
		assert.Equal(t, "0", r.Value(FieldCost))
	})
}

func TestProductRecordJoinCode(t *testing.T) {
	r := &ProductRecord{ASIN: "B001"}
	assert.Equal(t, "B001", r.JoinCode())

	r.ImportedCode = "012345678905"
	assert.Equal(t, "012345678905", r.JoinCode())
}

func TestProductRecordIsNoise(t *testing.T) {
	assert.True(t, (&ProductRecord{Color: "Red"}).IsNoise())
	assert.False(t, (&ProductRecord{Title: "Widget"}).IsNoise())
}

func TestMetricJSON(t *testing.T) {
	data, err := json.Marshal([]Metric{MetricValue(-40), MetricLabel(LabelNoBuybox)})
	require.NoError(t, err)
	assert.JSONEq(t, `[-40, "No Buybox"]`, string(data))

	var back []Metric
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, -40.0, back[0].Value)
	assert.Equal(t, LabelNoBuybox, back[1].Label)
	assert.Equal(t, "-40.00", back[0].String())
}

func TestAnnotations(t *testing.T) {
	a := NewAnnotations()
	r := NewProductRecord("main.csv", 2)

	a.Add(r.ID, FieldCost, HighlightCostMissing)
	a.Add(r.ID, "", HighlightBestVariant)

	assert.True(t, a.Has(r.ID, HighlightCostMissing))
	assert.False(t, a.Has(r.ID, HighlightBestColor))
	assert.Len(t, a.For(r.ID), 2)
	assert.Equal(t, 1, a.Len())
}
