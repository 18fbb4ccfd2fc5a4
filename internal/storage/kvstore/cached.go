package kvstore

import (
	"bytes"
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedDB is a read-through cache in front of another DB.
// Writes go straight to the underlying store and evict the touched keys.
type CachedDB struct {
	inner DB
	cache *lru.Cache[string, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedDB wraps inner with an LRU holding up to size values.
func NewCachedDB(inner DB, size int) (*CachedDB, error) {
	if size <= 0 {
		size = 4096 // Default cache size
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedDB{inner: inner, cache: cache}, nil
}

func (c *CachedDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if val, ok := c.cache.Get(string(key)); ok {
		c.hits.Add(1)
		return bytes.Clone(val), nil
	}
	c.misses.Add(1)

	val, err := c.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(string(key), bytes.Clone(val))
	return val, nil
}

func (c *CachedDB) Write(ctx context.Context, key, value []byte) error {
	c.cache.Remove(string(key))
	return c.inner.Write(ctx, key, value)
}

func (c *CachedDB) Delete(ctx context.Context, key []byte) error {
	c.cache.Remove(string(key))
	return c.inner.Delete(ctx, key)
}

func (c *CachedDB) Batch(ctx context.Context, ops []BatchOperation) error {
	for _, op := range ops {
		c.cache.Remove(string(op.Key))
	}
	return c.inner.Batch(ctx, ops)
}

func (c *CachedDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	return c.inner.Iterator(ctx, start, end)
}

// Stats returns the cache hit and miss counters.
func (c *CachedDB) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
