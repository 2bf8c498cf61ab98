package ristretto

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/prankvz/sentinel/cache"
)

type Cache[K ristretto.Key, V any] struct {
	cache *ristretto.Cache[K, V]
}

var _ cache.Cache[string, struct{}] = (*Cache[string, struct{}])(nil)

func (rc *Cache[K, V]) Get(key K) (V, bool) {
	return rc.cache.Get(key)
}

func (rc *Cache[K, V]) Set(key K, value V, cost int64) bool {
	return rc.cache.Set(key, value, cost)
}

func (rc *Cache[K, V]) SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool {
	return rc.cache.SetWithTTL(key, value, cost, ttl)
}

func (rc *Cache[K, V]) Wait() {
	rc.cache.Wait()
}

func (rc *Cache[K, V]) Close() {
	rc.cache.Close()
}

// sizing per level; items are cost 1 so MaxCost is the item budget
var levels = map[string]ristretto.Config[string, struct{}]{
	"small":      {NumCounters: 1e5, MaxCost: 1e4, BufferItems: 64},
	"medium":     {NumCounters: 1e6, MaxCost: 1e5, BufferItems: 64},
	"large":      {NumCounters: 1e7, MaxCost: 1e6, BufferItems: 64},
	"very-large": {NumCounters: 1e8, MaxCost: 1e7, BufferItems: 64},
}

// New creates a cache sized by level: small, medium, large or very-large.
func New[K ristretto.Key, V any](level string) (*Cache[K, V], error) {
	l, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("unknown cache level %q", level)
	}

	c, err := ristretto.NewCache(&ristretto.Config[K, V]{
		NumCounters: l.NumCounters,
		MaxCost:     l.MaxCost,
		BufferItems: l.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{cache: c}, nil
}
