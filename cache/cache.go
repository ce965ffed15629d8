package cache

import (
	"context"
	"errors"
	"time"

	rediscache "github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type ReadOnlyCache interface {
	Get(ctx context.Context, key string, target any) error
}

type Cache interface {
	ReadOnlyCache
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UseCache reads key through c. On a miss, or when the cache itself fails,
// callback supplies the value. Storing the result is best effort. A nil c
// always calls callback.
func UseCache[T any](ctx context.Context, c Cache, key string, ttl time.Duration, callback func() (T, error)) (T, error) {
	var v T
	if c == nil {
		return callback()
	}
	if err := c.Get(ctx, key, &v); err == nil {
		return v, nil
	}

	v, err := callback()
	if err != nil {
		return v, err
	}

	//nolint:errcheck
	c.Set(ctx, key, v, ttl)
	return v, nil
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, rediscache.ErrCacheMiss)
}

type RedisCache struct {
	instance *rediscache.Cache
}

func (c *RedisCache) Get(ctx context.Context, key string, target any) error {
	return c.instance.Get(ctx, key, target)
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.instance.Set(&rediscache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.instance.Delete(ctx, key)
}

// NewRedisCache builds a cache over client. A nil client gives a process
// local cache, which is what tests and single-node setups use.
func NewRedisCache(client redis.UniversalClient, withLocalCache bool) *RedisCache {
	var localCache rediscache.LocalCache
	if withLocalCache || client == nil {
		localCache = rediscache.NewTinyLFU(10000, time.Minute)
	}
	opts := &rediscache.Options{LocalCache: localCache}
	if client != nil {
		opts.Redis = client
	}
	return &RedisCache{instance: rediscache.New(opts)}
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
