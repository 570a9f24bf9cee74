package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalysisResultModel is one stored analysis. Payload holds the encoded snapshot.
type AnalysisResultModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	CreatedAt time.Time  `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	Records   int        `gorm:"not null"`
	Payload   []byte     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AnalysisResultModel) TableName() string {
	return "analysis_results"
}

var _ analysis.ResultStore = (*ResultStore)(nil)

// ResultStore keeps snapshots in the analysis_results table
type ResultStore struct {
	db            *Database
	ttl           time.Duration
	purgeInterval time.Duration
	now           func() time.Time
	logger        *zap.Logger
	stopChan      chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// ResultStoreOption configures a ResultStore
type ResultStoreOption func(*ResultStore)

// WithPurgeInterval sets how often expired rows are deleted; 0 disables
// the background purge
func WithPurgeInterval(d time.Duration) ResultStoreOption {
	return func(s *ResultStore) {
		s.purgeInterval = d
	}
}

// WithLogger sets the store logger
func WithLogger(log *zap.Logger) ResultStoreOption {
	return func(s *ResultStore) {
		s.logger = log
	}
}

// NewResultStore creates the store and migrates its table. ttl <= 0 keeps
// rows until deleted.
func NewResultStore(db *Database, ttl time.Duration, opts ...ResultStoreOption) (*ResultStore, error) {
	if err := db.DB.AutoMigrate(&AnalysisResultModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate analysis_results: %w", err)
	}
	s := &ResultStore{
		db:            db,
		ttl:           ttl,
		purgeInterval: 10 * time.Minute,
		now:           time.Now,
		logger:        zap.NewNop(),
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 && s.purgeInterval > 0 {
		s.wg.Add(1)
		go s.purgeLoop()
	}
	return s, nil
}

func (s *ResultStore) purgeLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(context.Background())
			if err != nil {
				s.logger.Warn("Failed to purge expired analyses", zap.Error(err))
			} else if n > 0 {
				s.logger.Debug("Purged expired analyses", zap.Int64("rows", n))
			}
		}
	}
}

// Save inserts or replaces the snapshot row
func (s *ResultStore) Save(ctx context.Context, snap *analysis.Snapshot) error {
	payload, err := analysis.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	model := AnalysisResultModel{
		ID:        snap.Result.ID.String(),
		CreatedAt: snap.CreatedAt.UTC(),
		Records:   len(snap.Result.Records),
		Payload:   payload,
	}
	if s.ttl > 0 {
		expires := s.now().UTC().Add(s.ttl)
		model.ExpiresAt = &expires
	}

	err = s.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Load reads a snapshot back. Expired rows are treated as missing.
func (s *ResultStore) Load(ctx context.Context, id uuid.UUID) (*analysis.Snapshot, error) {
	var model AnalysisResultModel
	err := s.db.DB.WithContext(ctx).
		Where("id = ?", id.String()).
		Where("expires_at IS NULL OR expires_at > ?", s.now().UTC()).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return analysis.DecodeSnapshot(model.Payload)
}

// PurgeExpired deletes expired rows and returns how many were removed
func (s *ResultStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.DB.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&AnalysisResultModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge analyses: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ping checks the database connection
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close stops the purge loop and closes the database. Safe to call
// multiple times.
func (s *ResultStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
