package tagging

import (
	"context"
	"errors"
	"sync"

	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// ErrIndexOutOfRange is the cause of the VALIDATION error Query.At returns
// for a position past the end. Match it with errors.Is.
var ErrIndexOutOfRange = errors.New("index out of range")

func outOfRange() error {
	return domainerrors.Validation("index out of range").WithCause(ErrIndexOutOfRange)
}

// fetchFunc loads a window of results. A negative limit means all of them.
type fetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// countFunc counts results without loading them.
type countFunc func(ctx context.Context) (int, error)

// Query is a lazily evaluated result.
//
// Nothing is fetched until a method needs data. All loads everything once and
// keeps it; At, Slice and Count answer from that cache when it is present and
// otherwise run a bounded query that leaves the cache empty.
type Query[T any] struct {
	fetch fetchFunc[T]
	count countFunc

	mu     sync.Mutex
	cache  []T
	cached bool
}

func newQuery[T any](fetch fetchFunc[T], count countFunc) *Query[T] {
	return &Query[T]{fetch: fetch, count: count}
}

// emptyQuery is a Query with no results that never touches storage.
func emptyQuery[T any]() *Query[T] {
	return &Query[T]{cache: []T{}, cached: true}
}

// All returns every result, fetching and caching them on first use.
// The returned slice is never nil and must not be modified.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cached {
		return q.cache, nil
	}
	items, err := q.fetch(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	q.cache, q.cached = items, true
	return items, nil
}

// At returns the result at position i.
func (q *Query[T]) At(ctx context.Context, i int) (T, error) {
	var zero T
	if i < 0 {
		return zero, outOfRange()
	}

	if cache, ok := q.snapshot(); ok {
		if i >= len(cache) {
			return zero, outOfRange()
		}
		return cache[i], nil
	}

	items, err := q.fetch(ctx, i, 1)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, outOfRange()
	}
	return items[0], nil
}

// Slice returns results in [lo, hi). A negative hi means through the end;
// a negative lo is treated as 0.
func (q *Query[T]) Slice(ctx context.Context, lo, hi int) ([]T, error) {
	if lo < 0 {
		lo = 0
	}
	limit := -1
	if hi >= 0 {
		if hi <= lo {
			return []T{}, nil
		}
		limit = hi - lo
	}

	if cache, ok := q.snapshot(); ok {
		return store.Window(cache, lo, limit), nil
	}

	items, err := q.fetch(ctx, lo, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Count returns the number of results.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if cache, ok := q.snapshot(); ok {
		return len(cache), nil
	}
	return q.count(ctx)
}

// Cached reports whether All has loaded the full result.
func (q *Query[T]) Cached() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cached
}

func (q *Query[T]) snapshot() ([]T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cache, q.cached
}
