package identity

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "identity:ref:"

// redisCache is the redis-backed ReferenceCache. Cache faults degrade to
// store lookups, never to resolution failures.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache builds a ReferenceCache over the given client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ReferenceCache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisCache) Get(ctx context.Context, ref string) (string, bool) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+ref).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("identity cache read failed", zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, ref, key string) {
	if err := c.client.Set(ctx, cacheKeyPrefix+ref, key, c.ttl).Err(); err != nil {
		c.logger.Debug("identity cache write failed", zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, refs ...string) {
	if len(refs) == 0 {
		return
	}
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, cacheKeyPrefix+ref)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("identity cache invalidation failed", zap.Error(err))
	}
}
