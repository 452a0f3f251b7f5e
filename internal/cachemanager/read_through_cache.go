package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts lookups served by a ReadThroughCache.
type Stats struct {
	Hits   int64
	Misses int64
}

// ReadThroughCache answers from the cache and falls back to fn on a miss,
// storing successful results. Errors are never cached.
type ReadThroughCache[V any, I any] struct {
	cache  CacheManager[V]
	fn     func(ctx context.Context, input I) (V, error)
	bypass bool
	hits   atomic.Int64
	misses atomic.Int64
}

// NewReadThroughCache wraps fn with cache. With bypass set every call goes
// straight to fn.
func NewReadThroughCache[V any, I any](
	cache CacheManager[V],
	fn func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[V, I] {
	return &ReadThroughCache[V, I]{
		cache:  cache,
		fn:     fn,
		bypass: bypass,
	}
}

// Get returns the cached value for key or computes it from input.
func (r *ReadThroughCache[V, I]) Get(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	return r.get(ctx, key, input, ttl, false)
}

// GetWithRefresh is Get, but a hit also extends the entry's ttl.
func (r *ReadThroughCache[V, I]) GetWithRefresh(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	return r.get(ctx, key, input, ttl, true)
}

func (r *ReadThroughCache[V, I]) get(ctx context.Context, key string, input I, ttl time.Duration, refresh bool) (V, error) {
	if r.bypass {
		return r.fn(ctx, input)
	}

	var (
		value V
		ok    bool
	)
	if refresh {
		value, ok = r.cache.GetWithRefresh(ctx, key, ttl)
	} else {
		value, ok = r.cache.Get(ctx, key)
	}
	if ok {
		r.hits.Add(1)
		return value, nil
	}
	r.misses.Add(1)

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate drops key so the next Get recomputes it.
func (r *ReadThroughCache[V, I]) Invalidate(ctx context.Context, key string) {
	r.cache.Delete(ctx, key)
}

// Stats returns hit and miss counts since creation.
func (r *ReadThroughCache[V, I]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}
