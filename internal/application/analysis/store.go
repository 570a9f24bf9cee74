package analysis

import (
	"context"
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// Snapshot is a finished analysis kept for later retrieval
type Snapshot struct {
	Result    *Result
	Order     *catalog.Order
	CreatedAt time.Time
}

// ResultStore keeps snapshots by analysis ID. Load returns
// shared.ErrNotFound for unknown or expired IDs.
type ResultStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Close() error
}
