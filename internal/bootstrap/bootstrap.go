// Package bootstrap builds the analysis service and its optional result
// store and report archive from configuration. The server and the CLI
// share it so both run identical pipelines.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/catalogrecon/backend/internal/infrastructure/cache"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/catalogrecon/backend/internal/infrastructure/persistence"
	"github.com/catalogrecon/backend/internal/infrastructure/storage"
	strategyinfra "github.com/catalogrecon/backend/internal/infrastructure/strategy"
	"github.com/catalogrecon/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Patterns returns the configured alias tables
func Patterns(cfg *config.Config) analysis.Patterns {
	return analysis.Patterns{
		Main:  cfg.Patterns.MainPatterns(),
		Cost:  cfg.Patterns.CostPatterns(),
		Stock: cfg.Patterns.StockPatterns(),
	}
}

// NewStrategies builds the strategy registry and checks that the
// configured strategy names exist
func NewStrategies(cfg *config.Config) (*strategyinfra.StrategyRegistry, error) {
	strategies, err := strategyinfra.NewRegistryWithDefaults()
	if err != nil {
		return nil, fmt.Errorf("register strategies: %w", err)
	}

	if name := cfg.Pipeline.PricingStrategy; name != "" &&
		!strategies.IsRegistered(strategy.StrategyTypePricing, name) {
		return nil, fmt.Errorf("pipeline.pricing_strategy: unknown strategy %q (have %v)",
			name, strategies.ListPricingStrategies())
	}
	if name := cfg.Pipeline.AllocationStrategy; name != "" &&
		!strategies.IsRegistered(strategy.StrategyTypeAllocation, name) {
		return nil, fmt.Errorf("pipeline.allocation_strategy: unknown strategy %q (have %v)",
			name, strategies.ListAllocationStrategies())
	}
	return strategies, nil
}

// NewService wires the strategy registry, pipeline and service. metrics may be nil.
func NewService(cfg *config.Config, log *zap.Logger, metrics analysis.Metrics) (*analysis.Service, error) {
	strategies, err := NewStrategies(cfg)
	if err != nil {
		return nil, err
	}

	pipeline := analysis.NewPipeline(strategies, log,
		analysis.WithChunkSize(cfg.Pipeline.ChunkSize),
		analysis.WithParentMode(cfg.Rating.ParentMode),
		analysis.WithPatterns(Patterns(cfg)),
		analysis.WithMetrics(metrics),
		analysis.WithPricingStrategy(cfg.Pipeline.PricingStrategy),
		analysis.WithAllocationStrategy(cfg.Pipeline.AllocationStrategy),
	)
	return analysis.NewService(pipeline, cfg.Pipeline.MaxFileSize, log), nil
}

// NewResultStore creates the configured result store, or nil when
// results.backend is "none"
func NewResultStore(cfg *config.Config, log *zap.Logger) (analysis.ResultStore, error) {
	if cfg.Results.Backend == config.ResultsBackendSQL {
		db, err := persistence.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("results: %w", err)
		}
		if err := telemetry.NewDBTracing(cfg.Telemetry, cfg.Database.Driver, log).Register(db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("results: database tracing: %w", err)
		}
		store, err := persistence.NewResultStore(db, cfg.Results.TTL, persistence.WithLogger(log))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("results: %w", err)
		}
		log.Info("Using SQL result store", zap.String("driver", cfg.Database.Driver))
		return store, nil
	}
	return cache.NewResultStoreFactory(cfg.Results, cfg.Redis, cache.WithLogger(log)).CreateStore()
}

// NewArchiver connects to object storage and makes sure the bucket exists.
// It returns nil when storage is disabled.
func NewArchiver(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage.ReportArchiver, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	log.Info("Archiving reports to object storage",
		zap.String("bucket", s3.Bucket()),
		zap.String("prefix", cfg.Storage.KeyPrefix),
	)
	return storage.NewReportArchiver(s3, cfg.Storage.KeyPrefix,
		storage.WithArchiveLogger(log),
		storage.WithURLExpiry(cfg.Storage.PresignExpiration),
	), nil
}
