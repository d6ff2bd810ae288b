package tagging

import (
	"context"
	"sync"
)

type scopeKey struct{}

// scope memoizes queries for the lifetime of one request.
type scope struct {
	mu      sync.Mutex
	queries map[string]any
}

// WithRequestScope returns a context that memoizes TagsFor and EntitiesFor.
// Within it, the same arguments return the same *Query, so a result loaded once
// is reused for the rest of the request. Writes made through the Index with this
// context drop the memo.
func WithRequestScope(ctx context.Context) context.Context {
	if _, ok := ctx.Value(scopeKey{}).(*scope); ok {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{queries: make(map[string]any)})
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// memoized returns the query stored under key in ctx's scope, building and
// storing it on first use. Without a scope it always builds.
func memoized[T any](ctx context.Context, key string, build func() *Query[T]) *Query[T] {
	s := scopeFrom(ctx)
	if s == nil {
		return build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queries[key].(*Query[T]); ok {
		return q
	}
	q := build()
	s.queries[key] = q
	return q
}

// invalidateScope drops every memoized query in ctx's scope.
func invalidateScope(ctx context.Context) {
	s := scopeFrom(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	clear(s.queries)
	s.mu.Unlock()
}
