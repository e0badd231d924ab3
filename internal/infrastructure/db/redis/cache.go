package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/ports"
)

// listKeyPrefix is the namespace holding every cached task list page.
// Invalidation drops the whole namespace at once.
const listKeyPrefix = "tasks:"

// ListCache memoizes task list results in Redis. Every operation is
// best-effort: backend errors are counted, logged at warn level and
// degraded to a miss or a no-op, so an unreachable Redis only costs
// latency, never correctness.
type ListCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewListCache wraps the given Redis client. The client is expected to
// be connected; use ports.NoopListCache when no backend is configured.
func NewListCache(client *redis.Client, logger zerolog.Logger) *ListCache {
	return &ListCache{client: client, logger: logger}
}

func (c *ListCache) Get(ctx context.Context, key string) (*ports.CachedTaskList, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get skipped")
		}
		return nil, false
	}

	var value ports.CachedTaskList
	if err := json.Unmarshal(raw, &value); err != nil {
		// Corrupt entry: treat as a miss and let the next Set overwrite it.
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return nil, false
	}
	return &value, true
}

func (c *ListCache) Set(ctx context.Context, key string, value *ports.CachedTaskList, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set skipped")
		return
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set skipped")
	}
}

// Invalidate drops every key in the task list namespace. Coarse by
// contract: correctness over precision.
func (c *ListCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, listKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("invalidate").Inc()
		c.logger.Warn().Err(err).Msg("cache invalidation scan skipped")
		return
	}

	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("invalidate").Inc()
		c.logger.Warn().Err(err).Int("keys", len(keys)).Msg("cache invalidation skipped")
	}
}
