// Package advicecache stores generated advice text.
package advicecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/suncare/internal/domain/advice"
)

const (
	defaultSize = 512
	defaultTTL  = 24 * time.Hour
)

// MemoryCache is a size-bounded LRU whose entries expire after a fixed TTL.
// The ttl passed to Set is ignored; expiry is configured once at construction.
type MemoryCache struct {
	lru *expirable.LRU[string, advice.Response]
}

// NewMemoryCache constructs a cache holding up to size entries.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, advice.Response](size, nil, ttl)}
}

// Get implements advice.Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (advice.Response, bool, error) {
	resp, ok := c.lru.Get(key)
	return resp, ok, nil
}

// Set implements advice.Cache.
func (c *MemoryCache) Set(_ context.Context, key string, resp advice.Response, _ time.Duration) error {
	c.lru.Add(key, resp)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

var _ advice.Cache = (*MemoryCache)(nil)
