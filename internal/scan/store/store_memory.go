package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"veritag/internal/scan/models"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/sentinel"
)

// InMemoryScanStore implements ScanStore for unit tests and dev mode.
// A single mutex serializes appends, which keeps the per-tag sequence
// invariant trivially; contention is irrelevant at test scale.
type InMemoryScanStore struct {
	mu     sync.RWMutex
	byTag  map[id.TagID][]*models.ScanEvent
	byScan map[id.ScanID]*models.ScanEvent
}

// NewInMemoryScanStore creates an empty in-memory scan store.
func NewInMemoryScanStore() *InMemoryScanStore {
	return &InMemoryScanStore{
		byTag:  make(map[id.TagID][]*models.ScanEvent),
		byScan: make(map[id.ScanID]*models.ScanEvent),
	}
}

func (s *InMemoryScanStore) Append(ctx context.Context, event *models.ScanEvent) (*models.ScanEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("scan event is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	copied.ScanNumber = len(s.byTag[event.TagID]) + 1
	s.byTag[event.TagID] = append(s.byTag[event.TagID], &copied)
	s.byScan[copied.ID] = &copied

	result := copied
	return &result, nil
}

func (s *InMemoryScanStore) ListByTag(ctx context.Context, tagID id.TagID) ([]*models.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byTag[tagID]
	result := make([]*models.ScanEvent, 0, len(events))
	for _, e := range events {
		copied := *e
		result = append(result, &copied)
	}
	// Newest first.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScanNumber > result[j].ScanNumber
	})
	return result, nil
}

func (s *InMemoryScanStore) RecordAnswer(ctx context.Context, scanID id.ScanID, answer models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.byScan[scanID]
	if !ok {
		return fmt.Errorf("scan %s: %w", scanID, sentinel.ErrNotFound)
	}
	event.IsFirstHand = answer.IsFirstHand
	event.SourceInfo = answer.SourceInfo
	event.IsClaimed = answer.IsClaimed
	return nil
}
