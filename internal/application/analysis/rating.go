package analysis

import (
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
)

type parentColor struct {
	parent, color string
}

type ratingTotals struct {
	parent       map[string]float64
	parentColor  map[parentColor]float64
	color        map[string]float64
	maxColor     map[string]float64
	parentColors map[string]map[string]struct{}
}

// AggregateRatings fills the rating totals of every record and flags best
// colours. It is a whole-dataset reduction, independent of grouping.
// parentMode selects whether a Parent total sums RatingCount over its rows
// or takes the largest single value; it returns the number of records
// flagged as best colour.
func AggregateRatings(records []*catalog.ProductRecord, annotations *catalog.Annotations, parentMode string) int {
	t := ratingTotals{
		parent:       make(map[string]float64),
		parentColor:  make(map[parentColor]float64),
		color:        make(map[string]float64),
		maxColor:     make(map[string]float64),
		parentColors: make(map[string]map[string]struct{}),
	}

	for _, r := range records {
		if parentMode == config.ParentModeMax {
			t.parent[r.Parent] = max(t.parent[r.Parent], r.RatingCount)
		} else {
			t.parent[r.Parent] += r.RatingCount
		}

		key := parentColor{parent: r.Parent, color: r.Color}
		t.parentColor[key] += r.RatingCountChild
		t.color[r.Color] += r.RatingCountChild
		t.maxColor[r.Parent] = max(t.maxColor[r.Parent], t.parentColor[key])

		if r.Color != "" {
			colors := t.parentColors[r.Parent]
			if colors == nil {
				colors = make(map[string]struct{})
				t.parentColors[r.Parent] = colors
			}
			colors[r.Color] = struct{}{}
		}
	}

	flagged := 0
	for _, r := range records {
		pc := t.parentColor[parentColor{parent: r.Parent, color: r.Color}]
		r.TotalParentRatings = t.parent[r.Parent]
		r.TotalParentColorRatings = pc
		r.TotalColorRatings = t.color[r.Color]

		best := t.maxColor[r.Parent]
		if r.Color != "" && best > 0 && pc == best && len(t.parentColors[r.Parent]) > 1 {
			r.IsBestColor = true
			annotations.Add(r.ID, catalog.FieldColor, catalog.HighlightBestColor)
			flagged++
		}
	}
	return flagged
}
