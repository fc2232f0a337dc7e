// Package store persists scan events and owns the per-tag scan-number
// sequence.
package store

import (
	"context"

	"veritag/internal/scan/models"
	id "veritag/pkg/domain"
)

// ScanStore is the persistence contract for scan events.
//
// Append assigns ScanNumber itself: the count-and-insert happens inside a
// single serialized operation per tag (mutex in memory, row-lock transaction
// in Postgres), so the per-tag sequence is gap-free and unique under
// concurrent writers. Callers must leave event.ScanNumber zero.
//
// ListByTag returns events newest first.
type ScanStore interface {
	Append(ctx context.Context, event *models.ScanEvent) (*models.ScanEvent, error)
	ListByTag(ctx context.Context, tagID id.TagID) ([]*models.ScanEvent, error)
	RecordAnswer(ctx context.Context, scanID id.ScanID, answer models.Answer) error
}
