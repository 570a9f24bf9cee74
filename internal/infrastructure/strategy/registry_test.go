package strategy

import (
	"context"
	"sync"
	"testing"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock pricing strategy for testing
type mockPricingStrategy struct {
	strategy.BaseStrategy
}

func newMockPricingStrategy(name string) *mockPricingStrategy {
	return &mockPricingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(name, strategy.StrategyTypePricing, "Mock pricing strategy"),
	}
}

func (s *mockPricingStrategy) SelectPrice(r *catalog.ProductRecord) (float64, bool) {
	return 0, false
}

func (s *mockPricingStrategy) IncludesMSRP() bool {
	return false
}

// Mock allocation strategy for testing
type mockAllocationStrategy struct {
	strategy.BaseStrategy
}

func newMockAllocationStrategy(name string) *mockAllocationStrategy {
	return &mockAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(name, strategy.StrategyTypeAllocation, "Mock allocation strategy"),
	}
}

func (s *mockAllocationStrategy) Allocate(ctx context.Context, orderCtx strategy.OrderContext, records []*catalog.ProductRecord) (*catalog.Order, error) {
	return &catalog.Order{Budget: orderCtx.Budget}, nil
}

func TestNewStrategyRegistry(t *testing.T) {
	r := NewStrategyRegistry()
	require.NotNil(t, r)
	assert.Empty(t, r.ListPricingStrategies())
	assert.Empty(t, r.ListAllocationStrategies())
}

func TestRegisterPricingStrategy(t *testing.T) {
	r := NewStrategyRegistry()

	t.Run("successful registration", func(t *testing.T) {
		err := r.RegisterPricingStrategy(newMockPricingStrategy("test_pricing"))
		assert.NoError(t, err)
		assert.True(t, r.IsRegistered(strategy.StrategyTypePricing, "test_pricing"))
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := r.RegisterPricingStrategy(newMockPricingStrategy("test_pricing"))
		assert.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGetPricingStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("test_pricing")))

	t.Run("get by name", func(t *testing.T) {
		s, err := r.GetPricingStrategy("test_pricing")
		assert.NoError(t, err)
		assert.Equal(t, "test_pricing", s.Name())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := r.GetPricingStrategy("nonexistent")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("no default set", func(t *testing.T) {
		_, err := r.GetPricingStrategy("")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("get default when name is empty", func(t *testing.T) {
		require.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "test_pricing"))
		s, err := r.GetPricingStrategy("")
		assert.NoError(t, err)
		assert.Equal(t, "test_pricing", s.Name())
	})
}

func TestGetPricingStrategyOrDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("default_pricing")))
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("other")))
	require.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "default_pricing"))

	t.Run("get existing by name", func(t *testing.T) {
		assert.Equal(t, "other", r.GetPricingStrategyOrDefault("other").Name())
	})

	t.Run("fallback to default when not found", func(t *testing.T) {
		assert.Equal(t, "default_pricing", r.GetPricingStrategyOrDefault("nonexistent").Name())
	})

	t.Run("fallback to default when empty name", func(t *testing.T) {
		assert.Equal(t, "default_pricing", r.GetPricingStrategyOrDefault("").Name())
	})
}

func TestListPricingStrategies(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("zeta")))
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("alpha")))

	assert.Equal(t, []string{"alpha", "zeta"}, r.ListPricingStrategies())
}

func TestUnregisterPricingStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("test_pricing")))
	require.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "test_pricing"))

	t.Run("successful unregister clears default", func(t *testing.T) {
		require.NoError(t, r.UnregisterPricingStrategy("test_pricing"))
		assert.False(t, r.IsRegistered(strategy.StrategyTypePricing, "test_pricing"))
		assert.False(t, r.HasDefault(strategy.StrategyTypePricing))
	})

	t.Run("unregister nonexistent", func(t *testing.T) {
		err := r.UnregisterPricingStrategy("test_pricing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRegisterAllocationStrategy(t *testing.T) {
	r := NewStrategyRegistry()

	t.Run("successful registration", func(t *testing.T) {
		err := r.RegisterAllocationStrategy(newMockAllocationStrategy("test_alloc"))
		assert.NoError(t, err)
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := r.RegisterAllocationStrategy(newMockAllocationStrategy("test_alloc"))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGetAllocationStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterAllocationStrategy(newMockAllocationStrategy("test_alloc")))

	s, err := r.GetAllocationStrategy("test_alloc")
	assert.NoError(t, err)
	assert.Equal(t, "test_alloc", s.Name())

	_, err = r.GetAllocationStrategy("nonexistent")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetAllocationStrategyOrDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterAllocationStrategy(newMockAllocationStrategy("default_alloc")))
	require.NoError(t, r.SetDefault(strategy.StrategyTypeAllocation, "default_alloc"))

	got := r.GetAllocationStrategyOrDefault("nonexistent")
	assert.Equal(t, "default_alloc", got.Name())
}

func TestUnregisterAllocationStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterAllocationStrategy(newMockAllocationStrategy("test_alloc")))

	assert.NoError(t, r.UnregisterAllocationStrategy("test_alloc"))
	assert.Empty(t, r.ListAllocationStrategies())
	assert.ErrorIs(t, r.UnregisterAllocationStrategy("test_alloc"), shared.ErrNotFound)
}

func TestSetDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("test_pricing")))

	t.Run("set default successfully", func(t *testing.T) {
		assert.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "test_pricing"))
		assert.Equal(t, "test_pricing", r.GetDefault(strategy.StrategyTypePricing))
	})

	t.Run("set default for nonexistent strategy fails", func(t *testing.T) {
		err := r.SetDefault(strategy.StrategyTypeAllocation, "test_pricing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown strategy type is never registered", func(t *testing.T) {
		assert.False(t, r.IsRegistered(strategy.StrategyType("batch"), "test_pricing"))
	})
}

func TestStats(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("p1")))
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("p2")))
	require.NoError(t, r.RegisterAllocationStrategy(newMockAllocationStrategy("a1")))

	stats := r.Stats()
	assert.Equal(t, 2, stats[strategy.StrategyTypePricing])
	assert.Equal(t, 1, stats[strategy.StrategyTypeAllocation])
}

func TestConcurrentAccess(t *testing.T) {
	r := NewStrategyRegistry()
	var wg sync.WaitGroup
	numGoroutines := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name := string(rune('a' + (idx % 26)))
			// Some will get a duplicate error
			_ = r.RegisterPricingStrategy(newMockPricingStrategy(name))
		}(i)
	}

	wg.Wait()

	list := r.ListPricingStrategies()
	assert.Len(t, list, 26)
}

func TestConcurrentReadWrite(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterAllocationStrategy(newMockAllocationStrategy("concurrent_test")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.GetAllocationStrategy("concurrent_test")
				r.ListAllocationStrategies()
				r.Stats()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = r.RegisterAllocationStrategy(newMockAllocationStrategy(string(rune('A' + idx))))
		}(i)
	}

	wg.Wait()
	assert.Len(t, r.ListAllocationStrategies(), 11)
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, []string{"buybox-waterfall", "sale-price-waterfall"}, r.ListPricingStrategies())
	assert.Equal(t, "buybox-waterfall", r.GetDefault(strategy.StrategyTypePricing))

	assert.Equal(t, []string{"greedy-budget"}, r.ListAllocationStrategies())
	assert.Equal(t, "greedy-budget", r.GetDefault(strategy.StrategyTypeAllocation))

	pricing, err := r.GetPricingStrategy("")
	require.NoError(t, err)
	assert.False(t, pricing.IncludesMSRP())
}

func TestDescribe(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	infos := r.Describe()
	pricing := infos[strategy.StrategyTypePricing]
	require.Len(t, pricing, 2)
	assert.Equal(t, "buybox-waterfall", pricing[0].Name)
	assert.True(t, pricing[0].Default)
	assert.False(t, pricing[1].Default)
	assert.NotEmpty(t, pricing[1].Description)

	allocation := infos[strategy.StrategyTypeAllocation]
	require.Len(t, allocation, 1)
	assert.Equal(t, strategy.StrategyTypeAllocation, allocation[0].Type)
	assert.True(t, allocation[0].Default)

	require.NoError(t, r.UnregisterPricingStrategy("buybox-waterfall"))
	assert.False(t, r.Describe()[strategy.StrategyTypePricing][0].Default)
}
