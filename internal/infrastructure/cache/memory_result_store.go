package cache

import (
	"context"
	"sync"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var _ analysis.ResultStore = (*InMemoryResultStore)(nil)

type entry struct {
	snap      *analysis.Snapshot
	expiresAt time.Time // zero never expires
}

// InMemoryResultStore keeps snapshots in a map with a TTL and an entry cap.
// When full, the oldest snapshot is evicted first.
// State is per process; use the Redis store when several instances serve
// the same clients.
type InMemoryResultStore struct {
	mu              sync.RWMutex
	entries         map[uuid.UUID]entry
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time
	stopChan        chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// InMemoryOption configures an InMemoryResultStore
type InMemoryOption func(*InMemoryResultStore)

// WithCleanupInterval sets how often expired entries are purged
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(s *InMemoryResultStore) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryResultStore) {
		s.now = now
	}
}

// NewInMemoryResultStore creates a store and starts its cleanup goroutine.
// ttl <= 0 keeps entries until evicted; maxEntries <= 0 disables the cap.
func NewInMemoryResultStore(ttl time.Duration, maxEntries int, opts ...InMemoryOption) *InMemoryResultStore {
	store := &InMemoryResultStore{
		entries:         make(map[uuid.UUID]entry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Save stores a snapshot under its result ID, replacing any earlier one
func (s *InMemoryResultStore) Save(ctx context.Context, snap *analysis.Snapshot) error {
	if snap == nil || snap.Result == nil {
		return shared.Invalidf("snapshot has no result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}
	id := snap.Result.ID
	if _, exists := s.entries[id]; !exists && s.maxEntries > 0 {
		s.purgeExpired()
		for len(s.entries) >= s.maxEntries {
			s.evictOne()
		}
	}
	s.entries[id] = entry{snap: snap, expiresAt: expiresAt}
	return nil
}

// Load returns the snapshot for id
func (s *InMemoryResultStore) Load(ctx context.Context, id uuid.UUID) (*analysis.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	if !exists || s.expired(e) {
		return nil, shared.ErrNotFound
	}
	return e.snap, nil
}

// Len returns the number of stored entries, expired ones included
func (s *InMemoryResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryResultStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryResultStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

// evictOne drops the oldest snapshot. Caller holds the lock.
func (s *InMemoryResultStore) evictOne() {
	var (
		victim uuid.UUID
		oldest time.Time
		found  bool
	)
	for id, e := range s.entries {
		created := e.snap.CreatedAt
		if !found || created.Before(oldest) {
			victim, oldest, found = id, created, true
		}
	}
	if found {
		delete(s.entries, victim)
	}
}

func (s *InMemoryResultStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.purgeExpired()
			s.mu.Unlock()
		}
	}
}

// purgeExpired removes expired entries. Caller holds the lock.
func (s *InMemoryResultStore) purgeExpired() {
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
		}
	}
}
