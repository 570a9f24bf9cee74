package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "recon:analysis:"

var _ analysis.ResultStore = (*RedisResultStore)(nil)

// RedisResultStore keeps snapshots in Redis so every instance behind a
// load balancer can serve them
type RedisResultStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisResultStore connects to Redis and verifies the connection
func NewRedisResultStore(cfg config.RedisConfig, ttl time.Duration) (*RedisResultStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisResultStoreWithClient(client, "", ttl), nil
}

// NewRedisResultStoreWithClient wraps an existing client. An empty
// keyPrefix selects the default.
func NewRedisResultStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResultStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResultStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Save writes the snapshot with the store TTL. ttl <= 0 keeps it forever.
func (s *RedisResultStore) Save(ctx context.Context, snap *analysis.Snapshot) error {
	data, err := analysis.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(snap.Result.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Load reads a snapshot back
func (s *RedisResultStore) Load(ctx context.Context, id uuid.UUID) (*analysis.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return analysis.DecodeSnapshot(data)
}

// Ping checks the Redis connection
func (s *RedisResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisResultStore) Close() error {
	return s.client.Close()
}

func (s *RedisResultStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}
