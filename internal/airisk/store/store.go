// Package store provides the AI risk cache backends. Entries are idempotent
// within their TTL, so concurrent writers may race freely; the only
// requirement is an atomic put so a reader never sees a torn entry.
package store

import (
	"context"
	"time"

	"veritag/internal/airisk/models"
)

// CacheStore holds risk assessments keyed by tag code.
//
// Get returns sentinel.ErrNotFound for missing or expired entries; expiry is
// the store's concern so callers never serve a stale verdict.
type CacheStore interface {
	Get(ctx context.Context, tagCode string) (*models.Assessment, error)
	Put(ctx context.Context, tagCode string, entry *models.Assessment, ttl time.Duration) error
}
