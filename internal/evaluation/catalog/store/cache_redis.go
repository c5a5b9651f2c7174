package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/metrics"
	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/circuit"
)

const (
	cacheKeyPrefix     = "roundwise:catalog:"
	itemsCacheKey      = cacheKeyPrefix + "items"
	categoriesCacheKey = cacheKeyPrefix + "categories"

	defaultCacheTTL = 5 * time.Minute
)

// RedisCache is a read-through cache for the slow-moving parts of the
// catalog (items and categories). Rounds always go to the origin because
// their status changes on finalization.
//
// Redis failures never fail a lookup. After repeated failures the breaker
// opens and reads bypass Redis; writes keep probing until it recovers.
type RedisCache struct {
	origin  catalog.Source
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type CacheOption func(*RedisCache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *RedisCache) {
		if b != nil {
			c.breaker = b
		}
	}
}

func NewRedisCache(origin catalog.Source, client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		origin:  origin,
		client:  client,
		ttl:     defaultCacheTTL,
		breaker: circuit.New("catalog-cache"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisCache) Items(ctx context.Context) ([]byte, error) {
	return c.readThrough(ctx, "items", itemsCacheKey, c.origin.Items)
}

func (c *RedisCache) Categories(ctx context.Context) ([]byte, error) {
	return c.readThrough(ctx, "categories", categoriesCacheKey, c.origin.Categories)
}

func (c *RedisCache) Round(ctx context.Context, roundID id.RoundID) ([]byte, error) {
	return c.origin.Round(ctx, roundID)
}

// Invalidate drops cached catalog payloads, e.g. after a catalog import.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, itemsCacheKey, categoriesCacheKey).Err()
}

func (c *RedisCache) readThrough(ctx context.Context, kind, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if !c.breaker.IsOpen() {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.recordSuccess(ctx)
			c.recordLookup(kind, true)
			return raw, nil
		case errors.Is(err, redis.Nil):
			c.recordSuccess(ctx)
		default:
			c.recordFailure(ctx, "get", err)
		}
	}
	c.recordLookup(kind, false)

	raw, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, "set", err)
	} else {
		c.recordSuccess(ctx)
	}
	return raw, nil
}

func (c *RedisCache) recordLookup(kind string, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(kind, hit)
	}
}

func (c *RedisCache) recordFailure(ctx context.Context, op string, err error) {
	_, change := c.breaker.RecordFailure()
	if c.logger != nil {
		c.logger.WarnContext(ctx, "catalog cache error",
			"op", op,
			"error", err,
		)
	}
	if change.Opened {
		if c.metrics != nil {
			c.metrics.SetCatalogCacheBreaker(true)
		}
		if c.logger != nil {
			c.logger.WarnContext(ctx, "catalog cache circuit opened, reading from origin",
				"breaker", c.breaker.Name(),
			)
		}
	}
}

func (c *RedisCache) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		if c.metrics != nil {
			c.metrics.SetCatalogCacheBreaker(false)
		}
		if c.logger != nil {
			c.logger.InfoContext(ctx, "catalog cache circuit closed",
				"breaker", c.breaker.Name(),
			)
		}
	}
}
