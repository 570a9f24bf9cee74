package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryObserveRun(t *testing.T) {
	r := NewRegistry()

	r.ObserveRun(analysis.OutcomeSuccess, analysis.LiveStats{
		RowsRead:          10,
		Records:           7,
		NoiseDropped:      1,
		DuplicatesDropped: 2,
		CostMatched:       5,
		CostMissed:        2,
	}, 2*time.Second)
	r.ObserveRun(analysis.OutcomeFailed, analysis.LiveStats{RowsRead: 99}, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Analyses.WithLabelValues(analysis.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Analyses.WithLabelValues(analysis.OutcomeFailed)))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.RowsRead))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.RecordsProduced))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.DuplicatesDropped))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.JoinLookups.WithLabelValues("cost", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.JoinLookups.WithLabelValues("cost", "miss")))
}

func TestRegistryObserveStageAndFiles(t *testing.T) {
	r := NewRegistry()
	r.ObserveStage(analysis.StageIngest, 50*time.Millisecond)
	r.ObserveStage(analysis.StageIngest, 20*time.Millisecond)
	r.ObserveFileError("ERR_IMPORT_EMPTY_FILE")

	assert.Equal(t, 1, testutil.CollectAndCount(r.StageSeconds))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FileErrors.WithLabelValues("ERR_IMPORT_EMPTY_FILE")))
}

func TestRegistryObserveOrder(t *testing.T) {
	r := NewRegistry()
	r.ObserveOrder(&catalog.Order{TotalUnits: 6, Spent: decimal.RequireFromString("42.50")})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Orders))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.OrderUnits))
	assert.Equal(t, 42.5, testutil.ToFloat64(r.OrderSpend))
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveFileError("ERR_IMPORT_INVALID_ENCODING")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `catalog_recon_file_errors_total{code="ERR_IMPORT_INVALID_ENCODING"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
