package analysis

import (
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
)

// Run outcomes reported to Metrics
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics receives pipeline measurements. Implementations must be safe for
// concurrent use because independent runs may share one collector.
type Metrics interface {
	ObserveStage(stage string, d time.Duration)
	ObserveRun(outcome string, stats LiveStats, d time.Duration)
	ObserveFileError(code string)
	ObserveOrder(order *catalog.Order)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, time.Duration) {}
func (nopMetrics) ObserveRun(string, LiveStats, time.Duration) {}
func (nopMetrics) ObserveFileError(string) {}
func (nopMetrics) ObserveOrder(*catalog.Order) {}
