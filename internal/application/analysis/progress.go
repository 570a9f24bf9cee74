package analysis

import (
	"context"
	"runtime"
)

// LiveStats are running counters reported at progress checkpoints
type LiveStats struct {
	RowsRead          int `json:"rows_read"`
	NoiseDropped      int `json:"noise_dropped"`
	DuplicatesDropped int `json:"duplicates_dropped"`
	Records           int `json:"records"`
	CostMatched       int `json:"cost_matched"`
	CostMissed        int `json:"cost_missed"`
	StockMatched      int `json:"stock_matched"`
	StockMissed       int `json:"stock_missed"`
	Groups            int `json:"groups"`
	BestVariants      int `json:"best_variants"`
	BestColors        int `json:"best_colors"`
	Profitable        int `json:"profitable"`
}

// ProgressFunc receives progress updates. percent never decreases across
// the calls of one run and ends at 100. stats is nil between checkpoints;
// when present it is a snapshot the callee may keep.
type ProgressFunc func(percent int, message string, stats *LiveStats)

// progressTracker enforces the monotonic percent contract
type progressTracker struct {
	fn   ProgressFunc
	last int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (p *progressTracker) report(percent int, message string) {
	p.emit(percent, message, nil)
}

func (p *progressTracker) checkpoint(percent int, message string, stats LiveStats) {
	p.emit(percent, message, &stats)
}

func (p *progressTracker) emit(percent int, message string, stats *LiveStats) {
	percent = min(max(percent, p.last), 100)
	p.last = percent
	if p.fn != nil {
		p.fn(percent, message, stats)
	}
}

// span maps the progress of one stage onto [from, to]
func (p *progressTracker) span(from, to int) progressSpan {
	return progressSpan{tracker: p, from: from, to: to}
}

type progressSpan struct {
	tracker  *progressTracker
	from, to int
}

func (s progressSpan) report(done, total int, message string) {
	percent := s.to
	if total > 0 {
		percent = s.from + (s.to-s.from)*done/total
	}
	s.tracker.report(percent, message)
}

// forEachChunk calls fn for consecutive [start, end) windows of n items.
// Between windows it checks ctx and yields the processor so a single
// large run does not monopolize a scheduler thread.
func forEachChunk(ctx context.Context, n, size int, fn func(start, end int)) error {
	if size <= 0 {
		size = DefaultChunkSize
	}
	for start := 0; start < n; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, n)
		fn(start, end)
		runtime.Gosched()
	}
	return ctx.Err()
}
