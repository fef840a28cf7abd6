// Package cache keeps the fetched price-index bytes warm between pipeline
// runs: an in-memory store by default, Redis when REDIS_ADDR is set.
package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrMiss reports an absent or expired entry.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque byte payloads under string keys. A zero TTL means the
// entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// NewAuto returns the Redis adapter when REDIS_ADDR is set, otherwise the
// in-memory store.
func NewAuto() Cache {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return &redisCache{r: redis.NewClient(&redis.Options{Addr: addr})}
	}
	return New()
}

// New returns the in-memory store.
func New() Cache { return &memory{entries: make(map[string]entry)} }

type entry struct {
	payload []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

type memory struct {
	mu      sync.Mutex
	entries map[string]entry
}

func (c *memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		return nil, ErrMiss
	}
	return e.payload, nil
}

func (c *memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	e := entry{payload: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

type redisCache struct{ r *redis.Client }

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.r.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.r.Set(ctx, key, val, ttl).Err()
}
