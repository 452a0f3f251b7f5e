// Package cachemanager provides a small generic cache layer used to memoize
// rendered bibliographies.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values of type V under string keys with a TTL.
type CacheManager[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
	Len() int
}
