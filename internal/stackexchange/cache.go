package stackexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ziadkadry99/soassoc/internal/question"
)

// CachedSource wraps a Source with Redis-backed caching of question lookups.
// Redis failures fall back to the wrapped source.
type CachedSource struct {
	base  Source
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedSource creates a caching wrapper using the provided Redis client
// and TTL. A nil client or zero TTL disables caching.
func NewCachedSource(base Source, client *redis.Client, ttl time.Duration) *CachedSource {
	if base == nil {
		panic("stackexchange.NewCachedSource: base source is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedSource{base: base, redis: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *CachedSource) Questions(ctx context.Context, ids string, q Query) ([]question.Question, error) {
	key := questionsCacheKey(ids, q)
	if items, ok := c.load(ctx, key); ok {
		return items, nil
	}

	items, err := c.base.Questions(ctx, ids, q)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, items)
	return items, nil
}

// Evict drops the cached lookup for ids.
func (c *CachedSource) Evict(ctx context.Context, ids string, q Query) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, questionsCacheKey(ids, q)).Err()
}

func (c *CachedSource) load(ctx context.Context, key string) ([]question.Question, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var items []question.Question
	if err := json.Unmarshal(data, &items); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return items, true
}

func (c *CachedSource) store(ctx context.Context, key string, items []question.Question) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func questionsCacheKey(ids string, q Query) string {
	return fmt.Sprintf("questions:%s:%s:%s:%t:%t:%s", q.Site, q.Sort, q.Order, q.IncludeBody, q.IncludeFiltersApplied, ids)
}
