package cache

import (
	"testing"
	"time"

	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// unreachable points at a closed local port so connection attempts fail fast
var unreachable = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestResultStoreFactory_CreateStore(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("none disables storage", func(t *testing.T) {
		f := NewResultStoreFactory(config.ResultsConfig{Backend: config.ResultsBackendNone}, unreachable, WithLogger(log))
		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("memory backend", func(t *testing.T) {
		f := NewResultStoreFactory(config.ResultsConfig{
			Backend:    config.ResultsBackendMemory,
			TTL:        time.Minute,
			MaxEntries: 5,
		}, unreachable, WithLogger(log))
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()

		mem, ok := store.(*InMemoryResultStore)
		require.True(t, ok)
		assert.Equal(t, time.Minute, mem.ttl)
		assert.Equal(t, 5, mem.maxEntries)
	})

	t.Run("redis falls back to memory when allowed", func(t *testing.T) {
		f := NewResultStoreFactory(config.ResultsConfig{
			Backend:       config.ResultsBackendRedis,
			AllowFallback: true,
		}, unreachable, WithLogger(log))
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryResultStore)
		assert.True(t, ok)
	})

	t.Run("redis without fallback fails", func(t *testing.T) {
		f := NewResultStoreFactory(config.ResultsConfig{Backend: config.ResultsBackendRedis}, unreachable)
		store, err := f.CreateStore()
		assert.Nil(t, store)
		assert.ErrorContains(t, err, "Redis required")
	})
}
