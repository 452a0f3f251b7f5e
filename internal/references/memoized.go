package references

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/citemark/internal/cachemanager"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/store"
	"github.com/zjrosen/citemark/internal/tracing"
)

// Store persists raw resolver output between runs.
type Store interface {
	Get(ctx context.Context, key string) (store.Entry, error)
	Put(ctx context.Context, e store.Entry) error
}

// Memoized caches another resolver's results. Lookups go memory, then the
// optional store, then the wrapped resolver.
type Memoized struct {
	inner Resolver
	store Store
	ttl   time.Duration
	cache *cachemanager.ReadThroughCache[*Bibliography, *lookup]
}

var _ Resolver = (*Memoized)(nil)

// lookup is one Resolve call travelling through the read-through cache.
// loaded is set when the memory tier missed.
type lookup struct {
	req    Request
	key    string
	loaded bool
}

// MemoOption configures a Memoized resolver.
type MemoOption func(*memoOptions)

type memoOptions struct {
	ttl     time.Duration
	store   Store
	manager cachemanager.CacheManager[*Bibliography]
	bypass  bool
}

// WithTTL sets how long results stay in memory.
func WithTTL(ttl time.Duration) MemoOption {
	return func(o *memoOptions) { o.ttl = ttl }
}

// WithStore adds a persistent tier behind the memory cache.
func WithStore(s Store) MemoOption {
	return func(o *memoOptions) { o.store = s }
}

// WithCacheManager replaces the default in-memory cache.
func WithCacheManager(m cachemanager.CacheManager[*Bibliography]) MemoOption {
	return func(o *memoOptions) { o.manager = m }
}

// WithBypass disables memoization while keeping the wrapper in place.
func WithBypass(bypass bool) MemoOption {
	return func(o *memoOptions) { o.bypass = bypass }
}

// NewMemoized wraps inner.
func NewMemoized(inner Resolver, opts ...MemoOption) *Memoized {
	o := memoOptions{ttl: cachemanager.DefaultExpiration}
	for _, opt := range opts {
		opt(&o)
	}
	if o.manager == nil {
		o.manager = cachemanager.NewInMemoryCacheManager[*Bibliography]("bibliographies", o.ttl, cachemanager.DefaultCleanupInterval)
	}

	m := &Memoized{inner: inner, store: o.store, ttl: o.ttl}
	m.cache = cachemanager.NewReadThroughCache(o.manager, m.load, o.bypass)
	return m
}

// Resolve returns the memoized bibliography for req, resolving on a miss.
func (m *Memoized) Resolve(ctx context.Context, req Request) (bib *Bibliography, err error) {
	if len(req.Keys) == 0 {
		return nil, ErrNoCitations
	}

	ctx, span := tracing.Start(ctx, tracing.SpanRefsResolve,
		attribute.String(tracing.AttrSourceID, req.File),
		attribute.Int(tracing.AttrKeyCount, len(req.Keys)),
	)
	defer func() { tracing.End(span, err) }()

	l := &lookup{req: req, key: m.Key(req)}
	bib, err = m.cache.GetWithRefresh(ctx, l.key, l, m.ttl)
	if err != nil {
		return nil, err
	}
	if !l.loaded {
		span.SetAttributes(
			attribute.Bool(tracing.AttrCacheHit, true),
			attribute.String(tracing.AttrCacheTier, "memory"),
		)
	} else {
		span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))
	}
	return bib.withFile(req.File), nil
}

// Key is the memoization key for req: the keys it cites plus the wrapped
// resolver's fingerprint. The document name is not part of it, so files
// citing the same works share an entry.
func (m *Memoized) Key(req Request) string {
	h := sha256.New()
	if f, ok := m.inner.(Fingerprinter); ok {
		h.Write([]byte(f.Fingerprint()))
	}
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(req.Keys, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// Stats reports memory cache hits and misses.
func (m *Memoized) Stats() cachemanager.Stats {
	return m.cache.Stats()
}

// load runs on a memory miss.
func (m *Memoized) load(ctx context.Context, l *lookup) (*Bibliography, error) {
	l.loaded = true
	req, key := l.req, l.key

	if m.store != nil {
		e, err := m.store.Get(ctx, key)
		switch {
		case err == nil:
			log.Debug(log.CatRefs, "Bibliography from store", "file", req.File, "key", key)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrCacheTier, "store"))
			return ParseBibliography(req.File, req.Keys, e.Markdown), nil
		case !errors.Is(err, store.ErrNotFound):
			log.ErrorErr(log.CatRefs, "Store lookup failed", err, "key", key)
		}
	}

	bib, err := m.inner.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrCacheTier, "resolver"))

	if m.store != nil {
		if err := m.store.Put(ctx, store.Entry{CacheKey: key, File: req.File, Markdown: bib.Raw}); err != nil {
			log.ErrorErr(log.CatRefs, "Store write failed", err, "key", key)
		}
	}
	return bib, nil
}
