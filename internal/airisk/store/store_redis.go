package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"veritag/internal/airisk/models"
	platformredis "veritag/internal/platform/redis"
	"veritag/pkg/platform/sentinel"
)

const redisKeyPrefix = "veritag:airisk:"

// RedisCacheStore implements CacheStore on Redis so the TTL window is shared
// across instances. SET with expiry is atomic, which is all the concurrency
// story this cache needs.
type RedisCacheStore struct {
	client *platformredis.Client
}

// NewRedisCacheStore creates a Redis-backed cache.
func NewRedisCacheStore(client *platformredis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client}
}

func (s *RedisCacheStore) Get(ctx context.Context, tagCode string) (*models.Assessment, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+strings.ToLower(tagCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("risk cache %q: %w", tagCode, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("risk cache get: %w", err)
	}

	var assessment models.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return nil, fmt.Errorf("risk cache decode: %w", err)
	}
	return &assessment, nil
}

func (s *RedisCacheStore) Put(ctx context.Context, tagCode string, assessment *models.Assessment, ttl time.Duration) error {
	raw, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("risk cache encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+strings.ToLower(tagCode), raw, ttl).Err(); err != nil {
		return fmt.Errorf("risk cache put: %w", err)
	}
	return nil
}
