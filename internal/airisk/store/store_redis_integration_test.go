//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veritag/internal/airisk/models"
	"veritag/internal/airisk/store"
	platformredis "veritag/internal/platform/redis"
	"veritag/pkg/platform/sentinel"
	"veritag/pkg/testutil/containers"
)

type RedisCacheStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisCacheStore
}

func TestRedisCacheStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheStoreSuite))
}

func (s *RedisCacheStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedisCacheStore(&platformredis.Client{Client: s.redis.Client})
}

func (s *RedisCacheStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheStoreSuite) TestPutThenGet() {
	ctx := context.Background()

	assessment := &models.Assessment{
		IsSuspicious:   true,
		RiskLevel:      models.RiskHigh,
		RiskScore:      72,
		Reasons:        []string{"Scan location far outside distribution region"},
		Recommendation: "Contact the brand before purchase",
		ExpiresAt:      time.Now().UTC().Add(5 * time.Minute),
	}
	s.Require().NoError(s.store.Put(ctx, "vt-redis-001", assessment, 5*time.Minute))

	got, err := s.store.Get(ctx, "vt-redis-001")
	s.Require().NoError(err)
	s.True(got.IsSuspicious)
	s.Equal(models.RiskHigh, got.RiskLevel)
	s.Equal(72, got.RiskScore)
	s.Equal(assessment.Reasons, got.Reasons)
}

func (s *RedisCacheStoreSuite) TestGetMissReturnsNotFound() {
	_, err := s.store.Get(context.Background(), "vt-redis-missing")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheStoreSuite) TestEntryExpires() {
	ctx := context.Background()

	assessment := &models.Assessment{RiskLevel: models.RiskLow, RiskScore: 5}
	s.Require().NoError(s.store.Put(ctx, "vt-redis-ttl", assessment, 100*time.Millisecond))

	_, err := s.store.Get(ctx, "vt-redis-ttl")
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	_, err = s.store.Get(ctx, "vt-redis-ttl")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
