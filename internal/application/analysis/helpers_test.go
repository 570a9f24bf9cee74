package analysis

import (
	"testing"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	strategyinfra "github.com/catalogrecon/backend/internal/infrastructure/strategy"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	reg, err := strategyinfra.NewRegistryWithDefaults()
	require.NoError(t, err)
	return NewPipeline(reg, zaptest.NewLogger(t), opts...)
}

func variant(parent, color string, childRatings, rank float64) *catalog.ProductRecord {
	r := catalog.NewProductRecord("test.csv", 0)
	r.Parent = parent
	r.Color = color
	r.RatingCountChild = childRatings
	r.SalesRank = rank
	return r
}

func withASIN(asin string) *catalog.ProductRecord {
	r := catalog.NewProductRecord("test.csv", 0)
	r.ASIN = asin
	r.Title = "item " + asin
	return r
}
