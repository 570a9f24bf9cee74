package cache

import (
	"fmt"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ResultStoreFactory creates result stores based on configuration
type ResultStoreFactory struct {
	results config.ResultsConfig
	redis   config.RedisConfig
	logger  *zap.Logger
}

// ResultStoreFactoryOption is a functional option for configuring the factory
type ResultStoreFactoryOption func(*ResultStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResultStoreFactoryOption {
	return func(f *ResultStoreFactory) {
		f.logger = logger
	}
}

// NewResultStoreFactory creates a new factory
func NewResultStoreFactory(results config.ResultsConfig, redis config.RedisConfig, opts ...ResultStoreFactoryOption) *ResultStoreFactory {
	f := &ResultStoreFactory{
		results: results,
		redis:   redis,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStore creates a per-process store
func (f *ResultStoreFactory) CreateInMemoryStore() *InMemoryResultStore {
	return NewInMemoryResultStore(f.results.TTL, f.results.MaxEntries)
}

// CreateRedisStore creates a Redis-backed store
func (f *ResultStoreFactory) CreateRedisStore() (*RedisResultStore, error) {
	store, err := NewRedisResultStore(f.redis, f.results.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis result store: %w", err)
	}
	return store, nil
}

// CreateStore creates the configured store. It returns nil for the "none"
// backend. With the redis backend an unreachable server falls back to
// memory when AllowFallback is set.
func (f *ResultStoreFactory) CreateStore() (analysis.ResultStore, error) {
	switch f.results.Backend {
	case config.ResultsBackendNone:
		f.logger.Info("Result storage disabled")
		return nil, nil
	case config.ResultsBackendRedis:
		store, err := f.CreateRedisStore()
		if err == nil {
			f.logger.Info("Using Redis result store",
				zap.String("host", f.redis.Host),
				zap.Int("port", f.redis.Port),
			)
			return store, nil
		}
		if !f.results.AllowFallback {
			return nil, fmt.Errorf("Redis required for result storage but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory result store. "+
			"Stored analyses will not be shared between instances.",
			zap.Error(err),
		)
		return f.CreateInMemoryStore(), nil
	default:
		f.logger.Info("Using in-memory result store",
			zap.Duration("ttl", f.results.TTL),
			zap.Int("max_entries", f.results.MaxEntries),
		)
		return f.CreateInMemoryStore(), nil
	}
}
