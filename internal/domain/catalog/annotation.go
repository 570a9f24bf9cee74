package catalog

import (
	"sync"

	"github.com/google/uuid"
)

// Highlight names a reason a report writer may want to style a cell or row
type Highlight string

const (
	HighlightCostMissing        Highlight = "cost_missing"
	HighlightPickPackAssumed    Highlight = "pick_pack_assumed"
	HighlightReferralFeeAssumed Highlight = "referral_fee_assumed"
	HighlightBestVariant        Highlight = "best_variant"
	HighlightBestColor          Highlight = "best_color"
)

// Annotation ties a highlight to one field of a record. Field is empty for
// row-level highlights.
type Annotation struct {
	Field     StandardField `json:"field,omitempty"`
	Highlight Highlight     `json:"highlight"`
}

// Annotations is a presentation side-map keyed by record identity. The
// pipeline fills it; only report writers read it.
type Annotations struct {
	mu    sync.RWMutex
	items map[uuid.UUID][]Annotation
}

// NewAnnotations creates an empty side-map
func NewAnnotations() *Annotations {
	return &Annotations{items: make(map[uuid.UUID][]Annotation)}
}

// Add records a highlight for a record
func (a *Annotations) Add(id uuid.UUID, field StandardField, h Highlight) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[id] = append(a.items[id], Annotation{Field: field, Highlight: h})
}

// For returns the highlights of one record
func (a *Annotations) For(id uuid.UUID) []Annotation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Annotation(nil), a.items[id]...)
}

// Has returns true if the record carries highlight h
func (a *Annotations) Has(id uuid.UUID, h Highlight) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, an := range a.items[id] {
		if an.Highlight == h {
			return true
		}
	}
	return false
}

// Len returns the number of annotated records
func (a *Annotations) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// All returns a copy of the side-map for serialization
func (a *Annotations) All() map[uuid.UUID][]Annotation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[uuid.UUID][]Annotation, len(a.items))
	for id, list := range a.items {
		out[id] = append([]Annotation(nil), list...)
	}
	return out
}
