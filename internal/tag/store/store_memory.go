package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"veritag/internal/tag/models"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/sentinel"
)

// InMemoryTagStore implements TagStore for unit tests and dev mode.
type InMemoryTagStore struct {
	mu     sync.RWMutex
	byCode map[string]*models.Tag
	byID   map[id.TagID]*models.Tag
}

// NewInMemoryTagStore creates an empty in-memory tag store.
func NewInMemoryTagStore() *InMemoryTagStore {
	return &InMemoryTagStore{
		byCode: make(map[string]*models.Tag),
		byID:   make(map[id.TagID]*models.Tag),
	}
}

// Seed inserts a tag. Test/dev helper; production tags come from the
// stamping pipeline writing directly to Postgres.
func (s *InMemoryTagStore) Seed(tag *models.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tag
	s.byCode[strings.ToLower(tag.Code)] = &copied
	s.byID[tag.ID] = &copied
}

func (s *InMemoryTagStore) FindByCode(ctx context.Context, code string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.byCode[strings.ToLower(code)]
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", code, sentinel.ErrNotFound)
	}
	copied := *tag
	return &copied, nil
}

func (s *InMemoryTagStore) UpdateChainStatus(ctx context.Context, tagID id.TagID, status models.ChainStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, ok := s.byID[tagID]
	if !ok {
		return fmt.Errorf("tag %s: %w", tagID, sentinel.ErrNotFound)
	}
	tag.ChainStatus = &status
	return nil
}
