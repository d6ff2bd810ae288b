package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/store"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "  Crème   Brûlée ", 1999, 5)
	assert.Equal(t, "Crème Brûlée", p.Title)
	assert.Equal(t, "creme-brulee", p.Slug)
	assert.Equal(t, domain.Money(2199), p.PriceWithTax)

	got, err := ts.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.Empty(t, got.Tags)
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateProductRequest
		code domainerrors.Code
	}{
		{"blank title", CreateProductRequest{Title: " ", UnitPrice: 100, CollectionID: 1}, domainerrors.CodeValidation},
		{"price below minimum", CreateProductRequest{Title: "Mug", UnitPrice: 99, CollectionID: 1}, domainerrors.CodeValidation},
		{"negative inventory", CreateProductRequest{Title: "Mug", UnitPrice: 100, Inventory: -1, CollectionID: 1}, domainerrors.CodeValidation},
		{"no collection", CreateProductRequest{Title: "Mug", UnitPrice: 100}, domainerrors.CodeValidation},
		{"no sluggable characters", CreateProductRequest{Title: "!!!", UnitPrice: 100, CollectionID: 1}, domainerrors.CodeValidation},
		{"unknown collection", CreateProductRequest{Title: "Mug", UnitPrice: 100, CollectionID: 999}, domainerrors.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.catalog.CreateProduct(ctx, tt.req)
			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.code, derr.Code)
		})
	}
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 3)
	_, _, err := ts.tags.Attach(ctx, "product", p.ID, "kitchen")
	require.NoError(t, err)

	price := domain.Money(1250)
	title := "Big Mug"
	updated, err := ts.catalog.UpdateProduct(ctx, p.ID, UpdateProductRequest{Title: &title, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Title)
	assert.Equal(t, "mug", updated.Slug, "slug is not regenerated")
	assert.Equal(t, domain.Money(1375), updated.PriceWithTax)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "kitchen", updated.Tags[0].Label)

	_, err = ts.catalog.UpdateProduct(ctx, 999, UpdateProductRequest{Title: &title})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCatalogService_ListProductsWithTags(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	a := ts.seedProduct(t, "Apple", 100, 1)
	b := ts.seedProduct(t, "Banana", 200, 1)
	_, _, err := ts.tags.Attach(ctx, "product", b.ID, "fruit")
	require.NoError(t, err)

	views, err := ts.catalog.ListProducts(ctx, store.ProductFilter{}, true)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a.ID, views[0].ID)
	assert.Empty(t, views[0].Tags)
	require.Len(t, views[1].Tags, 1)
	assert.Equal(t, "fruit", views[1].Tags[0].Label)

	_, err = ts.catalog.ListProducts(ctx, store.ProductFilter{OrderBy: "colour"}, false)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCatalogService_DeletesClearTags(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 3)
	c := ts.seedCustomer(t, "Ada", "ada@example.com")
	_, _, err := ts.tags.Attach(ctx, "product", p.ID, "sale")
	require.NoError(t, err)
	_, _, err = ts.tags.Attach(ctx, "customer", c.ID, "vip")
	require.NoError(t, err)

	require.NoError(t, ts.catalog.DeleteProduct(ctx, p.ID))
	require.NoError(t, ts.catalog.DeleteCollection(ctx, p.CollectionID))
	require.NoError(t, ts.catalog.DeleteCustomer(ctx, c.ID))

	for _, ref := range []struct {
		model string
		id    int64
	}{
		{contenttype.ModelProduct, p.ID},
		{contenttype.ModelCustomer, c.ID},
	} {
		tags, err := ts.tags.GetTagsFor(ctx, ref.model, ref.id)
		require.NoError(t, err)
		assert.Empty(t, tags, ref.model)
	}

	// The tags themselves survive with no associations.
	usage, err := ts.tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	for _, u := range usage {
		assert.Zero(t, u.ItemCount)
	}
}

func TestCatalogService_DeleteConflicts(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 3)
	_, _, err := ts.tags.Attach(ctx, "collection", p.CollectionID, "kitchen")
	require.NoError(t, err)

	err = ts.catalog.DeleteCollection(ctx, p.CollectionID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// A refused delete leaves the tags alone.
	tags, err := ts.tags.GetTagsFor(ctx, "collection", p.CollectionID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	c := ts.seedCustomer(t, "Ada", "ada@example.com")
	_, err = ts.orders.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID: c.ID,
		Items:      []domain.LineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, ts.catalog.DeleteCustomer(ctx, c.ID), domainerrors.ErrConflict)
	assert.ErrorIs(t, ts.catalog.DeleteProduct(ctx, p.ID), domainerrors.ErrConflict)
	assert.ErrorIs(t, ts.catalog.DeleteProduct(ctx, 999), domainerrors.ErrNotFound)
}

func TestCatalogService_Collections(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 3)

	featured := p.ID
	c, err := ts.catalog.UpdateCollection(ctx, p.CollectionID, UpdateCollectionRequest{FeaturedProductID: &featured})
	require.NoError(t, err)
	require.NotNil(t, c.FeaturedProductID)
	assert.Equal(t, p.ID, *c.FeaturedProductID)

	none := int64(0)
	c, err = ts.catalog.UpdateCollection(ctx, p.CollectionID, UpdateCollectionRequest{FeaturedProductID: &none})
	require.NoError(t, err)
	assert.Nil(t, c.FeaturedProductID)

	list, err := ts.catalog.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ProductsCount)

	view, err := ts.catalog.GetCollection(ctx, p.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "Collection for Mug", view.Title)

	_, err = ts.catalog.GetCollection(ctx, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCatalogService_Customers(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	c := ts.seedCustomer(t, "Ada", "ada@example.com")
	assert.Equal(t, domain.MembershipBronze, c.Membership)

	_, err := ts.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FirstName: "Other", LastName: "Person", Email: "ada@example.com",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, err = ts.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FirstName: "Bad", LastName: "Email", Email: "not-an-email",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = ts.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FirstName: "Bad", LastName: "Tier", Email: "tier@example.com", Membership: "X",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	gold, err := ts.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com",
		Membership: domain.MembershipGold, BirthDate: "1906-12-09",
	})
	require.NoError(t, err)
	require.NotNil(t, gold.BirthDate)
	assert.Equal(t, 1906, gold.BirthDate.Year())

	list, err := ts.catalog.ListCustomers(ctx, store.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0].FirstName)
}

func TestCatalogService_Promotions(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 3)
	promo, err := ts.catalog.CreatePromotion(ctx, CreatePromotionRequest{Description: "Spring", Discount: 0.15})
	require.NoError(t, err)

	require.NoError(t, ts.catalog.AddProductPromotion(ctx, p.ID, promo.ID))
	require.NoError(t, ts.catalog.AddProductPromotion(ctx, p.ID, promo.ID))

	promos, err := ts.catalog.ListProductPromotions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "Spring", promos[0].Description)

	assert.ErrorIs(t, ts.catalog.AddProductPromotion(ctx, p.ID, 999), domainerrors.ErrNotFound)
	assert.ErrorIs(t, ts.catalog.AddProductPromotion(ctx, 999, promo.ID), domainerrors.ErrNotFound)

	_, err = ts.catalog.ListProductPromotions(ctx, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
