package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Table roles
const (
	RoleMain  = "main"
	RoleCost  = "cost"
	RoleStock = "stock"
)

// Stage names used in logs and metrics
const (
	StageIngest        = "ingest"
	StageMerge         = "merge"
	StageCost          = "cost"
	StageStock         = "stock"
	StageGroup         = "group"
	StageRating        = "rating"
	StageProfitability = "profitability"
)

// StrategyGetter resolves the named strategies a pipeline runs with
type StrategyGetter interface {
	GetPricingStrategyOrDefault(name string) strategy.PriceSelectionStrategy
	GetAllocationStrategyOrDefault(name string) strategy.OrderAllocationStrategy
}

// Patterns holds the header alias tables of the three file roles
type Patterns struct {
	Main  catalog.PatternTable `json:"main"`
	Cost  catalog.PatternTable `json:"cost"`
	Stock catalog.PatternTable `json:"stock"`
}

// DefaultPatterns returns the built-in alias tables
func DefaultPatterns() Patterns {
	return Patterns{
		Main:  catalog.DefaultMainPatterns(),
		Cost:  catalog.DefaultCostPatterns(),
		Stock: catalog.DefaultStockPatterns(),
	}
}

// For returns the table of a role
func (p Patterns) For(role string) catalog.PatternTable {
	switch role {
	case RoleCost:
		return p.Cost
	case RoleStock:
		return p.Stock
	default:
		return p.Main
	}
}

// SourceTable is one parsed input file plus manual header assignments
// that take precedence over detection
type SourceTable struct {
	Table     *csvimport.Table                 `validate:"required"`
	Overrides map[catalog.StandardField]string `validate:"-"`
}

// Input is everything one analysis run consumes
type Input struct {
	Main            []SourceTable `validate:"min=1,dive"`
	Cost            *SourceTable  `validate:"omitempty"`
	Stock           *SourceTable  `validate:"omitempty"`
	ShippingPerUnit float64       `validate:"gte=0"`
	MiscPerUnit     float64       `validate:"gte=0"`
	Progress        ProgressFunc  `validate:"-"`
}

// TableMapping reports how the columns of one input file were understood
type TableMapping struct {
	Source  string                  `json:"source"`
	Role    string                  `json:"role"`
	Rows    int                     `json:"rows"`
	Mapping map[string]string       `json:"mapping"`
	Missing []catalog.StandardField `json:"missing,omitempty"`
	Skipped []csvimport.RowError    `json:"skipped,omitempty"`
}

// Result is the output of one analysis run
type Result struct {
	ID           uuid.UUID                `json:"id"`
	Records      []*catalog.ProductRecord `json:"records"`
	ExtraColumns []string                 `json:"extra_columns"`
	Mappings     []TableMapping           `json:"mappings"`
	Annotations  *catalog.Annotations     `json:"-"`
	Stats        LiveStats                `json:"stats"`
	FileErrors   []*csvimport.FileError   `json:"file_errors,omitempty"`
	Duration     time.Duration            `json:"duration"`
}

// Pipeline runs catalog analyses. A Pipeline holds configuration only and
// may run any number of analyses concurrently.
type Pipeline struct {
	strategies         StrategyGetter
	logger             *zap.Logger
	metrics            Metrics
	validate           *validator.Validate
	patterns           Patterns
	chunkSize          int
	parentMode         string
	pricingStrategy    string
	allocationStrategy string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithChunkSize sets the number of rows processed between yields
func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithParentMode selects how Parent rating totals are formed
func WithParentMode(mode string) Option {
	return func(p *Pipeline) {
		if mode != "" {
			p.parentMode = mode
		}
	}
}

// WithPatterns replaces the header alias tables
func WithPatterns(patterns Patterns) Option {
	return func(p *Pipeline) {
		p.patterns = patterns
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPricingStrategy names the price strategy used for profit
func WithPricingStrategy(name string) Option {
	return func(p *Pipeline) {
		p.pricingStrategy = name
	}
}

// WithAllocationStrategy names the strategy used by BuildOrder
func WithAllocationStrategy(name string) Option {
	return func(p *Pipeline) {
		p.allocationStrategy = name
	}
}

// NewPipeline creates a pipeline
func NewPipeline(strategies StrategyGetter, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		strategies: strategies,
		logger:     log,
		metrics:    nopMetrics{},
		validate:   validator.New(),
		patterns:   DefaultPatterns(),
		chunkSize:  DefaultChunkSize,
		parentMode: config.ParentModeSum,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Patterns returns the alias tables in use
func (p *Pipeline) Patterns() Patterns {
	return p.patterns
}

// DetectColumns maps the headers of a file with the given role
func (p *Pipeline) DetectColumns(role string, headers []string) (catalog.ColumnMapping, []catalog.StandardField) {
	table := p.patterns.For(role)
	mapping := catalog.DetectColumns(headers, table)
	return mapping, mapping.Missing(table)
}

func (p *Pipeline) mapTable(role string, src SourceTable) (catalog.ColumnMapping, TableMapping) {
	table := p.patterns.For(role)
	mapping := catalog.DetectColumns(src.Table.Headers, table).Override(src.Overrides)
	return mapping, TableMapping{
		Source:  src.Table.Name,
		Role:    role,
		Rows:    src.Table.Len(),
		Mapping: mapping.Labels(),
		Missing: mapping.Missing(table),
		Skipped: src.Table.Skipped,
	}
}

func (p *Pipeline) checkInput(in Input) error {
	if len(in.Main) == 0 {
		return shared.ErrNoMainTables
	}
	if err := p.validate.Struct(in); err != nil {
		return shared.Invalidf("%s", err)
	}
	return nil
}

type stageTimer struct {
	p     *Pipeline
	log   *zap.Logger
	span  trace.Span
	stage string
	start time.Time
}

func (p *Pipeline) startStage(ctx context.Context, log *zap.Logger, stage string) stageTimer {
	return stageTimer{p: p, log: log, span: trace.SpanFromContext(ctx), stage: stage, start: time.Now()}
}

func (t stageTimer) done(fields ...zap.Field) {
	d := time.Since(t.start)
	t.p.metrics.ObserveStage(t.stage, d)
	t.span.AddEvent("stage complete", trace.WithAttributes(
		attribute.String("stage", t.stage),
		attribute.Int64("duration_ms", d.Milliseconds()),
	))
	t.log.Info("Stage complete", append([]zap.Field{
		zap.String("stage", t.stage),
		zap.Duration("duration", d),
	}, fields...)...)
}

// Run executes every stage of an analysis: ingest, merge, cost and stock
// enrichment, grouping, rating aggregation and profitability.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	if err := p.checkInput(in); err != nil {
		return nil, err
	}

	started := time.Now()
	id := uuid.New()
	ctx = logger.Ensure(ctx, p.logger)
	ctx, log := logger.WithAnalysisID(ctx, id.String())

	res, err := p.run(ctx, log, id, in)
	d := time.Since(started)
	switch {
	case err == nil:
		res.Duration = d
		p.metrics.ObserveRun(OutcomeSuccess, res.Stats, d)
		log.Info("Analysis complete",
			zap.Int("records", len(res.Records)),
			zap.Int("profitable", res.Stats.Profitable),
			zap.Duration("duration", d),
		)
		return res, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		p.metrics.ObserveRun(OutcomeCancelled, LiveStats{}, d)
		log.Warn("Analysis cancelled", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", shared.ErrCancelled, err)
	default:
		p.metrics.ObserveRun(OutcomeFailed, LiveStats{}, d)
		log.Error("Analysis failed", zap.Error(err))
		return nil, err
	}
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, id uuid.UUID, in Input) (*Result, error) {
	progress := newProgressTracker(in.Progress)
	annotations := catalog.NewAnnotations()
	res := &Result{ID: id, Annotations: annotations, ExtraColumns: []string{}}
	var stats LiveStats

	progress.report(0, "Reading catalog files")

	// Ingest 0-40
	timer := p.startStage(ctx, log, StageIngest)
	totalRows := 0
	for _, src := range in.Main {
		totalRows += src.Table.Len()
	}
	ingestSpan := progress.span(0, 40)
	sets := make([][]*catalog.ProductRecord, 0, len(in.Main))
	offset := 0
	for _, src := range in.Main {
		mapping, tm := p.mapTable(RoleMain, src)
		res.Mappings = append(res.Mappings, tm)
		if len(tm.Missing) > 0 {
			log.Debug("Unmapped catalog fields",
				zap.String("file", tm.Source),
				zap.Int("missing", len(tm.Missing)),
			)
		}

		base := offset
		records, err := Ingest(ctx, src.Table, mapping, p.chunkSize, func(done int) {
			ingestSpan.report(base+done, totalRows, fmt.Sprintf("Reading %s", src.Table.Name))
		})
		if err != nil {
			return nil, err
		}
		offset += src.Table.Len()
		stats.RowsRead += len(records)
		sets = append(sets, records)
	}
	timer.done(zap.Int("rows", stats.RowsRead), zap.Int("files", len(in.Main)))

	// Merge 40-45
	timer = p.startStage(ctx, log, StageMerge)
	records, ms := Merge(sets...)
	stats.NoiseDropped = ms.Noise
	stats.DuplicatesDropped = ms.Duplicates
	stats.Records = len(records)
	timer.done(
		zap.Int("records", len(records)),
		zap.Int("noise", ms.Noise),
		zap.Int("duplicates", ms.Duplicates),
	)
	progress.checkpoint(45, "Merged catalog files", stats)

	// Cost 45-55
	timer = p.startStage(ctx, log, StageCost)
	var costLookup *CostLookup
	if in.Cost != nil {
		mapping, tm := p.mapTable(RoleCost, *in.Cost)
		res.Mappings = append(res.Mappings, tm)
		costLookup = BuildCostLookup(in.Cost.Table, mapping)
		res.ExtraColumns = append(res.ExtraColumns, costLookup.Extras...)
	}
	js, err := ApplyCost(ctx, records, costLookup, in.ShippingPerUnit, in.MiscPerUnit, annotations, p.chunkSize)
	if err != nil {
		return nil, err
	}
	stats.CostMatched, stats.CostMissed = js.Matched, js.Missed
	timer.done(zap.Bool("cost_file", in.Cost != nil), zap.Int("matched", js.Matched), zap.Int("missed", js.Missed))
	progress.checkpoint(55, "Applied costs", stats)

	// Stock 55-60
	if in.Stock != nil {
		timer = p.startStage(ctx, log, StageStock)
		mapping, tm := p.mapTable(RoleStock, *in.Stock)
		res.Mappings = append(res.Mappings, tm)
		js, err := ApplyStock(ctx, records, BuildStockLookup(in.Stock.Table, mapping), p.chunkSize)
		if err != nil {
			return nil, err
		}
		stats.StockMatched, stats.StockMissed = js.Matched, js.Missed
		timer.done(zap.Int("matched", js.Matched), zap.Int("missed", js.Missed))
	}
	progress.checkpoint(60, "Applied stock levels", stats)

	// Group 60-70
	timer = p.startStage(ctx, log, StageGroup)
	gs, err := GroupVariants(ctx, records, annotations)
	if err != nil {
		return nil, err
	}
	stats.Groups, stats.BestVariants = gs.Groups, gs.BestVariants
	timer.done(zap.Int("groups", gs.Groups), zap.Int("best_variants", gs.BestVariants))
	progress.checkpoint(70, "Grouped variants", stats)

	// Rating 70-75
	timer = p.startStage(ctx, log, StageRating)
	stats.BestColors = AggregateRatings(records, annotations, p.parentMode)
	timer.done(zap.String("parent_mode", p.parentMode), zap.Int("best_colors", stats.BestColors))
	progress.checkpoint(75, "Aggregated ratings", stats)

	// Profitability 75-98
	timer = p.startStage(ctx, log, StageProfitability)
	var pricer strategy.PriceSelectionStrategy
	if p.strategies != nil {
		pricer = p.strategies.GetPricingStrategyOrDefault(p.pricingStrategy)
	}
	calc := NewProfitCalculator(pricer)
	profitSpan := progress.span(75, 98)
	profitable, err := ApplyProfitability(ctx, records, calc, p.chunkSize, func(done int) {
		profitSpan.report(done, len(records), "Calculating profitability")
	})
	if err != nil {
		return nil, err
	}
	stats.Profitable = profitable
	timer.done(zap.String("strategy", calc.profitPrice.Name()), zap.Int("profitable", profitable))

	res.Records = records
	res.Stats = stats
	progress.checkpoint(100, "Analysis complete", stats)
	return res, nil
}
