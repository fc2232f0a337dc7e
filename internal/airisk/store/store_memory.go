package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"veritag/internal/airisk/models"
	"veritag/pkg/platform/sentinel"
)

type memoryEntry struct {
	assessment models.Assessment
	expiresAt  time.Time
}

// InMemoryCacheStore implements CacheStore for unit tests and single-node
// dev mode.
type InMemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewInMemoryCacheStore creates an empty in-memory cache.
func NewInMemoryCacheStore() *InMemoryCacheStore {
	return &InMemoryCacheStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the clock. Test helper.
func (s *InMemoryCacheStore) WithClock(now func() time.Time) *InMemoryCacheStore {
	s.now = now
	return s
}

func (s *InMemoryCacheStore) Get(ctx context.Context, tagCode string) (*models.Assessment, error) {
	key := strings.ToLower(tagCode)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("risk cache %q: %w", tagCode, sentinel.ErrNotFound)
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("risk cache %q: %w", tagCode, sentinel.ErrNotFound)
	}

	copied := entry.assessment
	return &copied, nil
}

func (s *InMemoryCacheStore) Put(ctx context.Context, tagCode string, assessment *models.Assessment, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.ToLower(tagCode)] = memoryEntry{
		assessment: *assessment,
		expiresAt:  s.now().Add(ttl),
	}
	return nil
}
