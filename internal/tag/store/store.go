// Package store persists tags. The verification core reads tags by code and
// mirrors the on-chain status back into the record; it never creates or
// deletes tags (that belongs to the stamping pipeline).
package store

import (
	"context"

	"veritag/internal/tag/models"
	id "veritag/pkg/domain"
)

// TagStore is the persistence contract for tags.
//
// FindByCode returns sentinel.ErrNotFound (wrapped) for unknown codes.
// UpdateChainStatus is a cache refresh, not a merge: the on-chain value
// overwrites unconditionally (last-writer-wins).
type TagStore interface {
	FindByCode(ctx context.Context, code string) (*models.Tag, error)
	UpdateChainStatus(ctx context.Context, tagID id.TagID, status models.ChainStatus) error
}
