package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads a JSON-encoded value into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

// Set writes value as JSON.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeleteByPattern deletes every key matching pattern using SCAN.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// BuildCacheKey joins prefix and params with colons.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

const CacheKeyListView = "vault:list"

// ListCache stores owner-scoped list views. A nil *ListCache is a disabled cache.
type ListCache struct {
	cache Cache
	ttl   time.Duration
}

func NewListCache(cache Cache, ttl time.Duration) *ListCache {
	if cache == nil || ttl <= 0 {
		return nil
	}
	return &ListCache{cache: cache, ttl: ttl}
}

// Get reports whether a cached view was found and decoded into dest.
func (l *ListCache) Get(ctx context.Context, ownerID uint64, view, arg string, dest interface{}) bool {
	if l == nil {
		return false
	}
	err := l.cache.Get(ctx, BuildCacheKey(CacheKeyListView, ownerID, view, arg), dest)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		log.Warn().Err(err).Uint64("owner", ownerID).Str("view", view).Msg("list cache read failed")
	}
	return err == nil
}

func (l *ListCache) Set(ctx context.Context, ownerID uint64, view, arg string, value interface{}) {
	if l == nil {
		return
	}
	if err := l.cache.Set(ctx, BuildCacheKey(CacheKeyListView, ownerID, view, arg), value, l.ttl); err != nil {
		log.Warn().Err(err).Uint64("owner", ownerID).Str("view", view).Msg("list cache write failed")
	}
}

// Invalidate drops every cached view of ownerID.
func (l *ListCache) Invalidate(ctx context.Context, ownerID uint64) {
	if l == nil {
		return
	}
	if err := l.cache.DeleteByPattern(ctx, BuildCacheKey(CacheKeyListView, ownerID)+":*"); err != nil {
		log.Warn().Err(err).Uint64("owner", ownerID).Msg("list cache invalidation failed")
	}
}
