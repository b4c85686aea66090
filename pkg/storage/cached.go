package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vango-dev/hooks/pkg/telemetry"
)

// DefaultCacheSize is the number of keys kept by NewCached when size <= 0.
const DefaultCacheSize = 1024

type cacheEntry struct {
	value   string
	present bool
}

// Cached is a read-through LRU cache in front of a slower medium such as
// S3. Absent keys are cached too. Writes go through to the inner medium
// and update the cache only when they succeed.
//
// Changes made to the inner medium behind the cache's back are only seen
// for keys that are being watched through the cache.
type Cached struct {
	inner   Medium
	cache   *lru.Cache[string, cacheEntry]
	metrics *telemetry.Metrics
}

// NewCached wraps inner with an LRU cache of the given size.
// metrics may be nil.
func NewCached(inner Medium, size int, metrics *telemetry.Metrics) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// Unwrap implements Wrapper.
func (c *Cached) Unwrap() Medium {
	return c.inner
}

// Get implements Medium.
func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	if e, ok := c.cache.Get(key); ok {
		c.metrics.ObserveCache(true)
		return e.value, e.present, nil
	}
	c.metrics.ObserveCache(false)

	v, ok, err := c.inner.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Add(key, cacheEntry{value: v, present: ok})
	return v, ok, nil
}

// Set implements Medium.
func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, cacheEntry{value: value, present: true})
	return nil
}

// Remove implements Medium.
func (c *Cached) Remove(ctx context.Context, key string) error {
	if err := c.inner.Remove(ctx, key); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, cacheEntry{})
	return nil
}

// Keys implements Lister by asking the inner medium.
func (c *Cached) Keys(ctx context.Context) ([]string, error) {
	return Keys(ctx, c.inner)
}

// Watch implements Watcher. Events refresh the cached entry before fn runs.
// If the inner medium cannot watch, fn is never called.
func (c *Cached) Watch(key string, fn func(Event)) func() {
	w, ok := AsWatcher(c.inner)
	if !ok {
		return func() {}
	}
	return w.Watch(key, func(ev Event) {
		c.cache.Add(ev.Key, cacheEntry{value: ev.Value, present: !ev.Removed})
		fn(ev)
	})
}

// Len returns the number of cached keys.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *Cached) Purge() {
	c.cache.Purge()
}
