package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func archiveSnapshot(withOrder bool) *analysis.Snapshot {
	rec := catalog.NewProductRecord("main.csv", 2)
	rec.ASIN = "B000ARCH01"
	rec.Cost = 10
	rec.Profit = 17

	snap := &analysis.Snapshot{
		Result: &analysis.Result{
			ID:          uuid.MustParse("7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b"),
			Records:     []*catalog.ProductRecord{rec},
			Annotations: catalog.NewAnnotations(),
		},
		CreatedAt: time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC),
	}
	if withOrder {
		snap.Order = &catalog.Order{
			Budget:     decimal.NewFromInt(25),
			Spent:      decimal.NewFromInt(20),
			Remaining:  decimal.NewFromInt(5),
			TotalUnits: 2,
			EstProfit:  decimal.NewFromInt(34),
			Items: []catalog.OrderItem{{
				Record: rec, Units: 2,
				UnitCost:  decimal.NewFromInt(10),
				TotalCost: decimal.NewFromInt(20),
				EstProfit: decimal.NewFromInt(34),
			}},
		}
	}
	return snap
}

func TestReportArchiver_Keys(t *testing.T) {
	a := NewReportArchiver(NewMemoryObjectStorage(), "reports")
	report, order := a.Keys(archiveSnapshot(false))

	assert.Equal(t, "reports/2026/10/17/7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b/report.csv", report)
	assert.Equal(t, "reports/2026/10/17/7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b/order.csv", order)
}

func TestReportArchiver_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads report and order", func(t *testing.T) {
		store := NewMemoryObjectStorage()
		a := NewReportArchiver(store, "reports",
			WithArchiveLogger(zaptest.NewLogger(t)),
			WithURLExpiry(time.Hour),
		)

		out, err := a.Archive(ctx, archiveSnapshot(true))
		require.NoError(t, err)

		assert.Equal(t, 2, store.Len())
		report, ok := store.Get(out.ReportKey)
		require.True(t, ok)
		assert.Equal(t, csvContentType, report.ContentType)
		assert.Equal(t, "report-7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b.csv", report.Filename)
		assert.Equal(t, "7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b", report.Metadata["analysis-id"])
		assert.Equal(t, "1", report.Metadata["records"])
		assert.Contains(t, string(report.Data), "B000ARCH01")

		order, ok := store.Get(out.OrderKey)
		require.True(t, ok)
		assert.Equal(t, "order-7f1c9a52-3a43-4b7e-9a52-5c8d1e2f3a4b.csv", order.Filename)
		assert.Contains(t, string(order.Data), "TOTAL")

		assert.True(t, strings.HasPrefix(out.ReportURL, "https://storage.example.com/reports/"))
		assert.NotEmpty(t, out.OrderURL)
		assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt, 5*time.Second)
	})

	t.Run("skips order when there is none", func(t *testing.T) {
		store := NewMemoryObjectStorage()
		out, err := NewReportArchiver(store, "r").Archive(ctx, archiveSnapshot(false))
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
		assert.Empty(t, out.OrderKey)
		assert.Empty(t, out.OrderURL)
	})

	t.Run("propagates upload failures", func(t *testing.T) {
		_, err := NewReportArchiver(failingStore{}, "r").Archive(ctx, archiveSnapshot(false))
		assert.ErrorContains(t, err, "bucket unavailable")
	})

	t.Run("rejects empty snapshot", func(t *testing.T) {
		_, err := NewReportArchiver(NewMemoryObjectStorage(), "r").Archive(ctx, &analysis.Snapshot{})
		assert.Error(t, err)
	})
}

type failingStore struct{}

func (failingStore) Put(context.Context, Object) error {
	return errors.New("bucket unavailable")
}

func (failingStore) PresignGet(context.Context, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, errors.New("bucket unavailable")
}

func (failingStore) Ping(context.Context) error {
	return errors.New("bucket unavailable")
}

func TestReportArchiver_Ping(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, NewReportArchiver(NewMemoryObjectStorage(), "r").Ping(ctx))
	assert.ErrorContains(t, NewReportArchiver(failingStore{}, "r").Ping(ctx), "bucket unavailable")
}

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStorage()

	assert.ErrorIs(t, store.Put(ctx, Object{}), errEmptyKey)

	payload := []byte("abc")
	meta := map[string]string{"k": "v"}
	require.NoError(t, store.Put(ctx, Object{Key: "a/b.csv", Data: payload, ContentType: "text/csv", Metadata: meta}))
	payload[0] = 'x'
	meta["k"] = "changed"

	obj, ok := store.Get("a/b.csv")
	require.True(t, ok)
	assert.Equal(t, "abc", string(obj.Data), "stored data is copied")
	assert.Equal(t, "v", obj.Metadata["k"])
	assert.Equal(t, "text/csv", obj.ContentType)

	_, ok = store.Get("missing")
	assert.False(t, ok)

	u, _, err := store.PresignGet(ctx, "a/b.csv", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://storage.example.com/a/b.csv?expires="))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Put(cancelled, Object{Key: "c.csv"}), context.Canceled)
}
