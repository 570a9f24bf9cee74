// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for the analysis service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "catalog_recon"

// Bucket boundaries
var (
	// HTTPDurationBuckets are bucket boundaries for HTTP request duration (seconds).
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// StageDurationBuckets cover pipeline stages from a few rows to a few
	// hundred thousand.
	StageDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60}
)

// Registry owns a private Prometheus registry and the pipeline collectors
// registered on it.
type Registry struct {
	reg *prometheus.Registry

	Analyses          *prometheus.CounterVec
	AnalysisSeconds   prometheus.Histogram
	StageSeconds      *prometheus.HistogramVec
	RowsRead          prometheus.Counter
	RecordsProduced   prometheus.Counter
	NoiseDropped      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	JoinLookups       *prometheus.CounterVec
	FileErrors        *prometheus.CounterVec
	Orders            prometheus.Counter
	OrderUnits        prometheus.Counter
	OrderSpend        prometheus.Counter
}

// NewRegistry creates a registry with the pipeline collectors and the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	analyses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "analyses_total",
		Help:      "Analysis runs by outcome",
	}, []string{"outcome"})
	analysisSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of successful analysis runs",
		Buckets:   StageDurationBuckets,
	})
	stageSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of individual pipeline stages",
		Buckets:   StageDurationBuckets,
	}, []string{"stage"})
	rowsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_read_total",
		Help:      "Catalog rows read from main files",
	})
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_total",
		Help:      "Records left after noise removal and deduplication",
	})
	noise := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "noise_rows_dropped_total",
		Help:      "Rows dropped for carrying no identifying field",
	})
	dups := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "duplicate_rows_dropped_total",
		Help:      "Rows dropped because their ASIN was already seen",
	})
	joins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "join_lookups_total",
		Help:      "Side-table lookups by table and result",
	}, []string{"table", "result"})
	fileErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "file_errors_total",
		Help:      "Input files that could not be parsed, by error code",
	}, []string{"code"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "orders_total",
		Help:      "Purchase orders built",
	})
	orderUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "order_units_total",
		Help:      "Units proposed across all orders",
	})
	orderSpend := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "order_spend_total",
		Help:      "Currency committed across all orders",
	})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		analyses, analysisSeconds, stageSeconds, rowsRead, records, noise, dups,
		joins, fileErrors, orders, orderUnits, orderSpend,
	)

	return &Registry{
		reg:               r,
		Analyses:          analyses,
		AnalysisSeconds:   analysisSeconds,
		StageSeconds:      stageSeconds,
		RowsRead:          rowsRead,
		RecordsProduced:   records,
		NoiseDropped:      noise,
		DuplicatesDropped: dups,
		JoinLookups:       joins,
		FileErrors:        fileErrors,
		Orders:            orders,
		OrderUnits:        orderUnits,
		OrderSpend:        orderSpend,
	}
}

// MustRegister adds further collectors, such as the HTTP middleware's
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

var _ analysis.Metrics = (*Registry)(nil)

// ObserveStage records the duration of one pipeline stage
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records the outcome of one analysis. Counts are only added
// for successful runs.
func (r *Registry) ObserveRun(outcome string, stats analysis.LiveStats, d time.Duration) {
	r.Analyses.WithLabelValues(outcome).Inc()
	if outcome != analysis.OutcomeSuccess {
		return
	}
	r.AnalysisSeconds.Observe(d.Seconds())
	r.RowsRead.Add(float64(stats.RowsRead))
	r.RecordsProduced.Add(float64(stats.Records))
	r.NoiseDropped.Add(float64(stats.NoiseDropped))
	r.DuplicatesDropped.Add(float64(stats.DuplicatesDropped))
	r.JoinLookups.WithLabelValues(analysis.RoleCost, "hit").Add(float64(stats.CostMatched))
	r.JoinLookups.WithLabelValues(analysis.RoleCost, "miss").Add(float64(stats.CostMissed))
	r.JoinLookups.WithLabelValues(analysis.RoleStock, "hit").Add(float64(stats.StockMatched))
	r.JoinLookups.WithLabelValues(analysis.RoleStock, "miss").Add(float64(stats.StockMissed))
}

// ObserveFileError counts an unreadable input file
func (r *Registry) ObserveFileError(code string) {
	r.FileErrors.WithLabelValues(code).Inc()
}

// ObserveOrder records a built purchase order
func (r *Registry) ObserveOrder(order *catalog.Order) {
	r.Orders.Inc()
	r.OrderUnits.Add(float64(order.TotalUnits))
	r.OrderSpend.Add(order.Spent.InexactFloat64())
}
