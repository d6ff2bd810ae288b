package tagging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/store/kv"
	"github.com/storefrontapp/storefront-server/internal/store/sqlite"
)

// countingBackend counts range reads so tests can see when storage is hit.
type countingBackend struct {
	store.TagIndex
	tagsFor   atomic.Int32
	objectIDs atomic.Int32
}

func (c *countingBackend) TagsFor(ctx context.Context, ref domain.Ref, offset, limit int) ([]domain.Tag, error) {
	c.tagsFor.Add(1)
	return c.TagIndex.TagsFor(ctx, ref, offset, limit)
}

func (c *countingBackend) ObjectIDsFor(ctx context.Context, ctID, tagID int64, offset, limit int) ([]int64, error) {
	c.objectIDs.Add(1)
	return c.TagIndex.ObjectIDsFor(ctx, ctID, tagID, offset, limit)
}

type backendFactory func(t *testing.T, logger *slog.Logger) store.TagIndex

var backends = map[string]backendFactory{
	"sqlite": func(t *testing.T, logger *slog.Logger) store.TagIndex {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
		require.NoError(t, err)
		return s
	},
	"badger": func(t *testing.T, logger *slog.Logger) store.TagIndex {
		s, err := kv.OpenInMemory(logger)
		require.NoError(t, err)
		return s
	},
}

func setupTestIndex(t *testing.T, factory backendFactory) (*Index, *countingBackend) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := &countingBackend{TagIndex: factory(t, logger)}
	t.Cleanup(func() { backend.Close() })

	registry := contenttype.NewRegistry(backend, logger)
	require.NoError(t, registry.RegisterDefaults(context.Background()))

	return NewIndex(backend, registry, metrics.New(), logger), backend
}

// forEachBackend runs fn once per storage backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, idx *Index, backend *countingBackend)) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			idx, backend := setupTestIndex(t, factory)
			fn(t, idx, backend)
		})
	}
}

func labels(tags []domain.Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.Label
	}
	return out
}

func TestGetTagsFor_Example(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		for _, id := range []int64{1, 2} {
			_, _, err := idx.Attach(ctx, "Product", id, "sale")
			require.NoError(t, err)
		}

		tags, err := idx.GetTagsFor(ctx, "Product", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"sale"}, labels(tags))

		tags, err = idx.GetTagsFor(ctx, "Product", 3)
		require.NoError(t, err)
		assert.NotNil(t, tags)
		assert.Empty(t, tags)

		tags, err = idx.GetTagsFor(ctx, "Customer", 1)
		require.NoError(t, err)
		assert.Empty(t, tags)

		ids, err := idx.GetEntitiesFor(ctx, "product", "SALE")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	})
}

func TestGetEntitiesFor_SignedIDsAscending(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		for _, id := range []int64{2, -1, 0, -40} {
			_, _, err := idx.Attach(ctx, "product", id, "sale")
			require.NoError(t, err)
		}

		ids, err := idx.GetEntitiesFor(ctx, "product", "sale")
		require.NoError(t, err)
		assert.Equal(t, []int64{-40, -1, 0, 2}, ids)

		tags, err := idx.GetTagsFor(ctx, "product", -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"sale"}, labels(tags))
	})
}

func TestGetTagsFor_ExactSetAcrossTypes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		for _, label := range []string{"organic", "fair trade"} {
			_, _, err := idx.Attach(ctx, "product", 7, label)
			require.NoError(t, err)
		}
		_, _, err := idx.Attach(ctx, "customer", 7, "wholesale")
		require.NoError(t, err)
		_, _, err = idx.Attach(ctx, "collection", 7, "organic")
		require.NoError(t, err)

		tags, err := idx.GetTagsFor(ctx, "product", 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"organic", "fair trade"}, labels(tags))

		tags, err = idx.GetTagsFor(ctx, "customer", 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"wholesale"}, labels(tags))

		ids, err := idx.GetEntitiesFor(ctx, "customer", "organic")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestAttach_DuplicateIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		first, created, err := idx.Attach(ctx, "product", 1, "On Sale")
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := idx.Attach(ctx, "product", 1, "  on   SALE ")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "On Sale", second.Label)

		tags, err := idx.GetTagsFor(ctx, "product", 1)
		require.NoError(t, err)
		assert.Len(t, tags, 1)
	})
}

func TestAttach_ValidatesLabel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		_, _, err := idx.Attach(ctx, "product", 1, "   ")
		assert.True(t, errors.Is(err, domainerrors.ErrValidation))

		_, _, err = idx.Attach(ctx, "product", 1, strings.Repeat("é", domain.MaxLabelLength+1))
		assert.True(t, errors.Is(err, domainerrors.ErrValidation))

		_, _, err = idx.Attach(ctx, "product", 1, strings.Repeat("é", domain.MaxLabelLength))
		assert.NoError(t, err)
	})
}

func TestUnknownType_AlwaysFails(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		tags, err := idx.GetTagsFor(ctx, "Widget", 1)
		assert.Nil(t, tags)
		assert.True(t, errors.Is(err, contenttype.ErrUnknownContentType))

		_, err = idx.GetEntitiesFor(ctx, "Widget", "sale")
		assert.True(t, errors.Is(err, contenttype.ErrUnknownContentType))

		_, _, err = idx.Attach(ctx, "Widget", 1, "sale")
		assert.True(t, errors.Is(err, contenttype.ErrUnknownContentType))

		_, err = idx.Detach(ctx, "Widget", 1, "sale")
		assert.True(t, errors.Is(err, contenttype.ErrUnknownContentType))

		_, err = idx.DetachAll(ctx, "Widget", 1)
		assert.True(t, errors.Is(err, contenttype.ErrUnknownContentType))
	})
}

func TestDeleteTag_RemovesFromEveryEntity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		sale, _, err := idx.Attach(ctx, "product", 1, "sale")
		require.NoError(t, err)
		_, _, err = idx.Attach(ctx, "customer", 1, "sale")
		require.NoError(t, err)
		_, _, err = idx.Attach(ctx, "product", 1, "new")
		require.NoError(t, err)

		detached, err := idx.DeleteTag(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, detached)

		tags, err := idx.GetTagsFor(ctx, "product", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"new"}, labels(tags))

		tags, err = idx.GetTagsFor(ctx, "customer", 1)
		require.NoError(t, err)
		assert.Empty(t, tags)

		_, err = idx.DeleteTag(ctx, sale.ID)
		assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

		_, err = idx.GetTag(ctx, sale.ID)
		assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
	})
}

func TestDetachAndDetachAll(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		for _, label := range []string{"a", "b", "c"} {
			_, _, err := idx.Attach(ctx, "order", 5, label)
			require.NoError(t, err)
		}

		removed, err := idx.Detach(ctx, "order", 5, "B")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = idx.Detach(ctx, "order", 5, "b")
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = idx.Detach(ctx, "order", 5, "never-created")
		require.NoError(t, err)
		assert.False(t, removed)

		n, err := idx.DetachAll(ctx, "order", 5)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		tags, err := idx.GetTagsFor(ctx, "order", 5)
		require.NoError(t, err)
		assert.Empty(t, tags)

		// Tags survive their last association.
		usage, err := idx.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, usage, 3)
		for _, u := range usage {
			assert.Zero(t, u.ItemCount, u.Label)
		}
	})
}

func TestQuery_AllCachesAndPartialReadsDoNot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, backend *countingBackend) {
		ctx := context.Background()

		for _, label := range []string{"red", "green", "blue"} {
			_, _, err := idx.Attach(ctx, "product", 1, label)
			require.NoError(t, err)
		}

		q, err := idx.TagsFor(ctx, "product", 1)
		require.NoError(t, err)
		assert.Equal(t, int32(0), backend.tagsFor.Load(), "building a query must not fetch")

		second, err := q.At(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "green", second.Label)
		assert.False(t, q.Cached())

		window, err := q.Slice(ctx, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"green", "blue"}, labels(window))
		assert.False(t, q.Cached())

		n, err := q.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, int32(2), backend.tagsFor.Load())

		all, err := q.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.True(t, q.Cached())

		_, err = q.All(ctx)
		require.NoError(t, err)
		first, err := q.At(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, "red", first.Label)
		tail, err := q.Slice(ctx, 2, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"blue"}, labels(tail))
		assert.Equal(t, int32(3), backend.tagsFor.Load(), "cached reads must not fetch")

		_, err = q.At(ctx, 3)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
		_, err = q.At(ctx, -1)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	})
}

func TestQuery_UncachedOutOfRange(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		q, err := idx.TagsFor(ctx, "product", 42)
		require.NoError(t, err)

		_, err = q.At(ctx, 0)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))

		empty, err := q.Slice(ctx, 3, 1)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})
}

func TestRequestScope_ReusesQueriesUntilWrite(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, backend *countingBackend) {
		ctx := WithRequestScope(context.Background())

		_, _, err := idx.Attach(ctx, "product", 1, "sale")
		require.NoError(t, err)

		q1, err := idx.TagsFor(ctx, "product", 1)
		require.NoError(t, err)
		q2, err := idx.TagsFor(ctx, "Product", 1)
		require.NoError(t, err)
		assert.Same(t, q1, q2)

		_, err = idx.GetTagsFor(ctx, "product", 1)
		require.NoError(t, err)
		_, err = idx.GetTagsFor(ctx, "store.product", 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1), backend.tagsFor.Load())

		// A write through the index drops the memo.
		_, _, err = idx.Attach(ctx, "product", 1, "new")
		require.NoError(t, err)
		q3, err := idx.TagsFor(ctx, "product", 1)
		require.NoError(t, err)
		assert.NotSame(t, q1, q3)

		tags, err := q3.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"sale", "new"}, labels(tags))

		// Outside a scope every call builds a fresh query.
		plain := context.Background()
		p1, err := idx.TagsFor(plain, "product", 1)
		require.NoError(t, err)
		p2, err := idx.TagsFor(plain, "product", 1)
		require.NoError(t, err)
		assert.NotSame(t, p1, p2)
	})
}

func TestEntitiesFor_Lazy(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, backend *countingBackend) {
		ctx := context.Background()

		for _, id := range []int64{30, 10, 20} {
			_, _, err := idx.Attach(ctx, "product", id, "seasonal")
			require.NoError(t, err)
		}

		q, err := idx.EntitiesFor(ctx, "product", "Seasonal")
		require.NoError(t, err)

		n, err := q.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		first, err := q.At(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(10), first)
		assert.False(t, q.Cached())

		ids, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20, 30}, ids)
		assert.Equal(t, int32(2), backend.objectIDs.Load())

		unknown, err := idx.GetEntitiesFor(ctx, "product", "nothing like this")
		require.NoError(t, err)
		assert.NotNil(t, unknown)
		assert.Empty(t, unknown)

		blank, err := idx.GetEntitiesFor(ctx, "product", "  ")
		require.NoError(t, err)
		assert.Empty(t, blank)
	})
}

func TestSyncMetrics(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx *Index, _ *countingBackend) {
		ctx := context.Background()

		_, _, err := idx.Attach(ctx, "product", 1, "sale")
		require.NoError(t, err)
		assert.NoError(t, idx.SyncMetrics(ctx))
	})
}
