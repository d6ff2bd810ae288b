package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/search"
	"github.com/storefrontapp/storefront-server/internal/store/sqlite"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// testServices wires every service over one temporary SQLite database.
type testServices struct {
	store   *sqlite.Store
	search  *search.SearchIndex
	tags    *TagService
	catalog *CatalogService
	carts   *CartService
	orders  *OrderService
	reports *ReportService
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	searchIndex, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { searchIndex.Close() })

	registry := contenttype.NewRegistry(st, logger)
	require.NoError(t, registry.RegisterDefaults(context.Background()))

	index := tagging.NewIndex(st, registry, metrics.New(), logger)
	tags := NewTagService(index, searchIndex, logger)

	return &testServices{
		store:   st,
		search:  searchIndex,
		tags:    tags,
		catalog: NewCatalogService(st, tags, logger),
		carts:   NewCartService(st, logger),
		orders:  NewOrderService(st, logger),
		reports: NewReportService(st),
	}
}

// seedProduct creates a collection (once per call) and a product in it.
func (ts *testServices) seedProduct(t *testing.T, title string, price domain.Money, inventory int) *ProductView {
	t.Helper()
	ctx := context.Background()

	c, err := ts.catalog.CreateCollection(ctx, CreateCollectionRequest{Title: "Collection for " + title})
	require.NoError(t, err)

	p, err := ts.catalog.CreateProduct(ctx, CreateProductRequest{
		Title:        title,
		UnitPrice:    price,
		Inventory:    inventory,
		CollectionID: c.ID,
	})
	require.NoError(t, err)
	return p
}

func (ts *testServices) seedCustomer(t *testing.T, first, email string) *domain.Customer {
	t.Helper()
	c, err := ts.catalog.CreateCustomer(context.Background(), CreateCustomerRequest{
		FirstName: first,
		LastName:  "Tester",
		Email:     email,
	})
	require.NoError(t, err)
	return c
}
