package storage

import (
	"context"
	"maps"
	"net/url"
	"sync"
	"time"
)

var _ ObjectStore = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process. Its download URLs are not
// served by anything; it exists for development and tests.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]Object),
	}
}

// Put stores a copy of obj
func (s *MemoryObjectStorage) Put(ctx context.Context, obj Object) error {
	if obj.Key == "" {
		return errEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	obj.Data = append([]byte(nil), obj.Data...)
	obj.Metadata = maps.Clone(obj.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = obj
	return nil
}

// PresignGet returns a placeholder URL for key
func (s *MemoryObjectStorage) PresignGet(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	u := s.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return u, expiresAt, nil
}

// Get returns the stored object
func (s *MemoryObjectStorage) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
