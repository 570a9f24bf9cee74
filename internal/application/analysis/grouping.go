package analysis

import (
	"bytes"
	"context"
	"sort"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Fee defaults assumed when the catalog export carries no value
const (
	DefaultPickPackFee    = 7.00
	DefaultReferralFeePct = 0.15
)

// MissingRankSentinel ranks variants without a sales rank last
const MissingRankSentinel = 9999999.0

// group is a maximal contiguous run of records sharing a Parent
type group struct {
	parent     string
	start, end int
}

func (g group) len() int {
	return g.end - g.start
}

type sortKey struct {
	parent, color []byte
}

// SortByParentColor stably sorts records by (Parent, Color) using English
// collation. Strings the collator considers equal fall back to byte order
// so that identical parents always end up adjacent.
func SortByParentColor(records []*catalog.ProductRecord) {
	// collators keep internal state and are not safe to share between runs
	c := collate.New(language.English)
	var buf collate.Buffer

	keys := make(map[*catalog.ProductRecord]sortKey, len(records))
	for _, r := range records {
		keys[r] = sortKey{
			parent: append([]byte(nil), c.KeyFromString(&buf, r.Parent)...),
			color:  append([]byte(nil), c.KeyFromString(&buf, r.Color)...),
		}
		buf.Reset()
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		ka, kb := keys[a], keys[b]
		if cmp := bytes.Compare(ka.parent, kb.parent); cmp != 0 {
			return cmp < 0
		}
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if cmp := bytes.Compare(ka.color, kb.color); cmp != 0 {
			return cmp < 0
		}
		return a.Color < b.Color
	})
}

// findGroups scans sorted records once and returns the runs of equal
// Parent. Records with an empty Parent form their own run.
func findGroups(records []*catalog.ProductRecord) []group {
	var groups []group
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && records[j].Parent == records[i].Parent {
			j++
		}
		groups = append(groups, group{parent: records[i].Parent, start: i, end: j})
		i = j
	}
	return groups
}

func effectiveRank(r *catalog.ProductRecord) float64 {
	if r.SalesRank <= 0 {
		return MissingRankSentinel
	}
	return r.SalesRank
}

// bestVariant returns the index of the most reviewed variant of g, or -1
// when no variant has child ratings. Equal ratings go to the lower sales
// rank, then to the earlier record.
func bestVariant(records []*catalog.ProductRecord, g group) int {
	maxChild := 0.0
	for _, r := range records[g.start:g.end] {
		maxChild = max(maxChild, r.RatingCountChild)
	}
	if maxChild <= 0 {
		return -1
	}

	best := -1
	bestRank := 0.0
	for i := g.start; i < g.end; i++ {
		r := records[i]
		if r.RatingCountChild != maxChild {
			continue
		}
		if rank := effectiveRank(r); best < 0 || rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

// backfillFees assumes marketplace defaults for missing fees and flags
// every assumed value
func backfillFees(r *catalog.ProductRecord, annotations *catalog.Annotations) {
	if r.PickPackFee <= 0 {
		r.PickPackFee = DefaultPickPackFee
		r.PickPackDefaulted = true
		annotations.Add(r.ID, catalog.FieldPickPackFee, catalog.HighlightPickPackAssumed)
	}
	if r.ReferralFeePct <= 0 {
		r.ReferralFeePct = DefaultReferralFeePct
		r.ReferralFeeDefaulted = true
		annotations.Add(r.ID, catalog.FieldReferralFeePct, catalog.HighlightReferralFeeAssumed)
	}
}

// GroupStats summarizes the grouping stage
type GroupStats struct {
	Groups       int
	BestVariants int
}

// GroupVariants sorts records in place, flags the best variant of every
// Parent group and backfills default fees on every record.
func GroupVariants(
	ctx context.Context,
	records []*catalog.ProductRecord,
	annotations *catalog.Annotations,
) (GroupStats, error) {
	SortByParentColor(records)
	if err := ctx.Err(); err != nil {
		return GroupStats{}, err
	}

	groups := findGroups(records)
	stats := GroupStats{Groups: len(groups)}
	for _, g := range groups {
		if i := bestVariant(records, g); i >= 0 {
			records[i].IsBestVariant = true
			annotations.Add(records[i].ID, "", catalog.HighlightBestVariant)
			stats.BestVariants++
		}
	}
	for _, r := range records {
		backfillFees(r, annotations)
	}
	return stats, ctx.Err()
}
