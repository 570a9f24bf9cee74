package analysis

import (
	"testing"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func rated(parent, color string, parentRatings, childRatings float64) *catalog.ProductRecord {
	r := variant(parent, color, childRatings, 0)
	r.RatingCount = parentRatings
	return r
}

func TestAggregateRatings(t *testing.T) {
	red1 := rated("P1", "Red", 100, 5)
	red2 := rated("P1", "Red", 100, 7)
	blue := rated("P1", "Blue", 100, 10)
	otherRed := rated("P2", "Red", 40, 3)
	records := []*catalog.ProductRecord{red1, red2, blue, otherRed}
	annotations := catalog.NewAnnotations()

	flagged := AggregateRatings(records, annotations, config.ParentModeSum)

	assert.Equal(t, 300.0, red1.TotalParentRatings)
	assert.Equal(t, 40.0, otherRed.TotalParentRatings)

	assert.Equal(t, 12.0, red1.TotalParentColorRatings)
	assert.Equal(t, 12.0, red2.TotalParentColorRatings)
	assert.Equal(t, 10.0, blue.TotalParentColorRatings)
	assert.Equal(t, 3.0, otherRed.TotalParentColorRatings)

	assert.Equal(t, 15.0, red1.TotalColorRatings)
	assert.Equal(t, 15.0, otherRed.TotalColorRatings)
	assert.Equal(t, 10.0, blue.TotalColorRatings)

	assert.True(t, red1.IsBestColor)
	assert.True(t, red2.IsBestColor)
	assert.False(t, blue.IsBestColor)
	assert.Equal(t, 2, flagged)
	assert.True(t, annotations.Has(red2.ID, catalog.HighlightBestColor))
}

func TestAggregateRatingsBestColorExclusivity(t *testing.T) {
	t.Run("single colour parent never has a best colour", func(t *testing.T) {
		a := rated("P1", "Red", 0, 50)
		b := rated("P1", "Red", 0, 20)
		noColor := rated("P1", "", 0, 100)

		flagged := AggregateRatings([]*catalog.ProductRecord{a, b, noColor}, catalog.NewAnnotations(), config.ParentModeSum)
		assert.Zero(t, flagged)
		assert.False(t, a.IsBestColor)
		assert.False(t, b.IsBestColor)
		assert.False(t, noColor.IsBestColor)
	})

	t.Run("zero ratings never flag", func(t *testing.T) {
		a := rated("P1", "Red", 0, 0)
		b := rated("P1", "Blue", 0, 0)
		assert.Zero(t, AggregateRatings([]*catalog.ProductRecord{a, b}, catalog.NewAnnotations(), config.ParentModeSum))
	})

	t.Run("empty colour is never best", func(t *testing.T) {
		blank := rated("P1", "", 0, 100)
		red := rated("P1", "Red", 0, 10)
		blue := rated("P1", "Blue", 0, 5)
		AggregateRatings([]*catalog.ProductRecord{blank, red, blue}, catalog.NewAnnotations(), config.ParentModeSum)
		assert.False(t, blank.IsBestColor)
		// the blank colour holds the parent maximum, so no colour reaches it
		assert.False(t, red.IsBestColor)
	})
}

func TestAggregateRatingsParentMode(t *testing.T) {
	a := rated("P1", "Red", 120, 0)
	b := rated("P1", "Blue", 120, 0)
	c := rated("P1", "Green", 80, 0)

	AggregateRatings([]*catalog.ProductRecord{a, b, c}, catalog.NewAnnotations(), config.ParentModeSum)
	assert.Equal(t, 320.0, a.TotalParentRatings)

	AggregateRatings([]*catalog.ProductRecord{a, b, c}, catalog.NewAnnotations(), config.ParentModeMax)
	assert.Equal(t, 120.0, a.TotalParentRatings)
	assert.Equal(t, 120.0, c.TotalParentRatings)
}
