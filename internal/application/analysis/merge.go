package analysis

import "github.com/catalogrecon/backend/internal/domain/catalog"

// MergeStats counts what Merge dropped
type MergeStats struct {
	Noise      int
	Duplicates int
}

// Merge concatenates per-file record sets in order, drops noise rows and
// keeps the first record per non-empty ASIN. Records without an ASIN are
// never deduplicated.
func Merge(sets ...[]*catalog.ProductRecord) ([]*catalog.ProductRecord, MergeStats) {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	var stats MergeStats
	seen := make(map[string]struct{}, total)
	merged := make([]*catalog.ProductRecord, 0, total)

	for _, set := range sets {
		for _, r := range set {
			if r.IsNoise() {
				stats.Noise++
				continue
			}
			if r.ASIN != "" {
				if _, dup := seen[r.ASIN]; dup {
					stats.Duplicates++
					continue
				}
				seen[r.ASIN] = struct{}{}
			}
			merged = append(merged, r)
		}
	}
	return merged, stats
}
