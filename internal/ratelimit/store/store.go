// Package store provides the sliding-window buckets behind the rate limiter.
package store

import (
	"context"
	"time"

	"veritag/internal/ratelimit/models"
)

// BucketStore admits or rejects one request against a keyed sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}
