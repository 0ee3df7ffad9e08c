package context

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

type ctxKey struct{}

// RequestContext memoizes catalog reads for the lifetime of one logical
// request. Concurrent lookups of the same key share a single fetch.
type RequestContext struct {
	ctx   context.Context
	cache sync.Map
	group singleflight.Group
}

// New creates a new RequestContext wrapping the given context.
func New(ctx context.Context) *RequestContext {
	return &RequestContext{ctx: ctx}
}

// FromContext extracts RequestContext, returns nil if not present.
func FromContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}
	if rc, ok := ctx.Value(ctxKey{}).(*RequestContext); ok {
		return rc
	}
	return nil
}

// WithContext stores RequestContext in the context.
func WithContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// Key builds the memo key for a resource read. Include order is ignored.
func Key(kind, id string, include ...string) string {
	k := kind + ":" + id
	if len(include) == 0 {
		return k
	}

	inc := slices.Clone(include)
	slices.Sort(inc)

	return k + "?" + strings.Join(inc, ",")
}

// GetOrFetch returns the cached value for key or calls fetch with ctx and
// caches its result. Errors are never cached.
func (rc *RequestContext) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if cached, ok := rc.cache.Load(key); ok {
		return cached, nil
	}

	value, err, _ := rc.group.Do(key, func() (any, error) {
		if cached, ok := rc.cache.Load(key); ok {
			return cached, nil
		}

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		actual, _ := rc.cache.LoadOrStore(key, v)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Forget drops every cached entry for kind and id, whatever includes
// they were fetched with.
func (rc *RequestContext) Forget(kind, id string) {
	prefix := kind + ":" + id
	rc.cache.Range(func(k, _ any) bool {
		s, _ := k.(string)
		if s == prefix || strings.HasPrefix(s, prefix+"?") {
			rc.cache.Delete(k)
		}
		return true
	})
}

// Len returns the number of cached entries.
func (rc *RequestContext) Len() int {
	n := 0
	rc.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Context returns the underlying context.
func (rc *RequestContext) Context() context.Context {
	return rc.ctx
}
