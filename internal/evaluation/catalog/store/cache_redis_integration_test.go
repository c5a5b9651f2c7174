//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"roundwise/internal/evaluation/metrics"
	"roundwise/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	origin  *InMemorySource
	metrics *metrics.Metrics
	cache   *RedisCache
	ctx     context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.origin = NewInMemory()
	s.origin.SetItems([]byte(`[{"id":1,"title":"Floors clean"}]`))
	s.origin.SetCategories([]byte(`[{"id":1,"name":"Hygiene"}]`))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = NewRedisCache(s.origin, s.redis.Client.Client, WithTTL(time.Minute), WithCacheMetrics(s.metrics))
}

// =============================================================================
// Read-through
// =============================================================================

func (s *RedisCacheSuite) TestSecondReadIsServedFromRedis() {
	first, err := s.cache.Items(s.ctx)
	s.Require().NoError(err)

	// origin changes are invisible until the entry expires or is invalidated
	s.origin.SetItems([]byte(`[]`))
	second, err := s.cache.Items(s.ctx)
	s.Require().NoError(err)
	s.JSONEq(string(first), string(second))

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CatalogCacheLookups.WithLabelValues("items", "miss")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CatalogCacheLookups.WithLabelValues("items", "hit")))

	ttl, err := s.redis.Client.TTL(s.ctx, itemsCacheKey).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisCacheSuite) TestInvalidateForcesOriginRead() {
	_, err := s.cache.Categories(s.ctx)
	s.Require().NoError(err)

	s.origin.SetCategories([]byte(`[{"id":2,"name":"Safety"}]`))
	s.Require().NoError(s.cache.Invalidate(s.ctx))

	raw, err := s.cache.Categories(s.ctx)
	s.Require().NoError(err)
	s.JSONEq(`[{"id":2,"name":"Safety"}]`, string(raw))
}

func (s *RedisCacheSuite) TestRoundsBypassTheCache() {
	s.origin.SetRound(3, []byte(`{"id":3,"status":"draft"}`))
	_, err := s.cache.Round(s.ctx, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.origin.SetRoundStatus(3, "completed"))
	raw, err := s.cache.Round(s.ctx, 3)
	s.Require().NoError(err)
	s.Contains(string(raw), "completed")

	keys, err := s.redis.Client.Keys(s.ctx, cacheKeyPrefix+"*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
}
