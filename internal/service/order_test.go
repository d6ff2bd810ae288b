package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/id"
)

func TestCartService_Lifecycle(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	p := ts.seedProduct(t, "Mug", 1000, 10)

	cart, err := ts.carts.CreateCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)

	_, err = ts.carts.AddItem(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)
	item, err := ts.carts.AddItem(ctx, cart.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	got, err := ts.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, domain.Money(3000), got.TotalPrice)

	_, err = ts.carts.UpdateItem(ctx, cart.ID, item.ID, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	item, err = ts.carts.UpdateItem(ctx, cart.ID, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	require.NoError(t, ts.carts.RemoveItem(ctx, cart.ID, item.ID))
	require.NoError(t, ts.carts.DeleteCart(ctx, cart.ID))

	_, err = ts.carts.GetCart(ctx, cart.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCartService_BadInput(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	_, err := ts.carts.GetCart(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = ts.carts.GetCart(ctx, id.NewCartID())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	cart, err := ts.carts.CreateCart(ctx)
	require.NoError(t, err)

	_, err = ts.carts.AddItem(ctx, cart.ID, 1, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = ts.carts.AddItem(ctx, cart.ID, 999, 1)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, []domainerrors.Code{domainerrors.CodeNotFound, domainerrors.CodeConflict}, derr.Code)
}

func TestOrderService_PlaceOrder(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	mug := ts.seedProduct(t, "Mug", 1000, 10)
	tea := ts.seedProduct(t, "Tea", 450, 10)
	c := ts.seedCustomer(t, "Ada", "ada@example.com")

	order, err := ts.orders.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID: c.ID,
		Items: []domain.LineRequest{
			{ProductID: mug.ID, Quantity: 2},
			{ProductID: tea.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, id.IsOrderReference(order.Reference), order.Reference)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Equal(t, domain.Money(2450), order.TotalPrice)

	// Later price changes do not touch the snapshot.
	price := domain.Money(5000)
	_, err = ts.catalog.UpdateProduct(ctx, mug.ID, UpdateProductRequest{UnitPrice: &price})
	require.NoError(t, err)

	got, err := ts.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(2450), got.TotalPrice)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ada", got.Customer.FirstName)

	p, err := ts.catalog.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Inventory)
}

func TestOrderService_InsufficientInventoryWritesNothing(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	mug := ts.seedProduct(t, "Mug", 1000, 10)
	rare := ts.seedProduct(t, "Rare", 9900, 1)
	c := ts.seedCustomer(t, "Ada", "ada@example.com")

	_, err := ts.orders.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID: c.ID,
		Items: []domain.LineRequest{
			{ProductID: mug.ID, Quantity: 2},
			{ProductID: rare.ID, Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	orders, err := ts.orders.ListRecentOrders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)

	p, err := ts.catalog.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Inventory)
}

func TestOrderService_PlaceOrderFromCart(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	mug := ts.seedProduct(t, "Mug", 1000, 10)
	c := ts.seedCustomer(t, "Ada", "ada@example.com")

	cart, err := ts.carts.CreateCart(ctx)
	require.NoError(t, err)
	_, err = ts.carts.AddItem(ctx, cart.ID, mug.ID, 3)
	require.NoError(t, err)

	order, err := ts.orders.PlaceOrder(ctx, PlaceOrderRequest{CustomerID: c.ID, CartID: cart.ID})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)

	_, err = ts.carts.GetCart(ctx, cart.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestOrderService_Validation(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"no customer", PlaceOrderRequest{Items: []domain.LineRequest{{ProductID: 1, Quantity: 1}}}},
		{"no items or cart", PlaceOrderRequest{CustomerID: 1}},
		{"both items and cart", PlaceOrderRequest{CustomerID: 1, CartID: id.NewCartID(), Items: []domain.LineRequest{{ProductID: 1, Quantity: 1}}}},
		{"zero quantity", PlaceOrderRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.orders.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	mug := ts.seedProduct(t, "Mug", 1000, 10)
	c := ts.seedCustomer(t, "Ada", "ada@example.com")
	order, err := ts.orders.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID: c.ID,
		Items:      []domain.LineRequest{{ProductID: mug.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := ts.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentComplete)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentComplete, updated.PaymentStatus)

	_, err = ts.orders.UpdatePaymentStatus(ctx, order.ID, "X")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = ts.orders.UpdatePaymentStatus(ctx, 999, domain.PaymentFailed)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReportService(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	mug := ts.seedProduct(t, "Mug", 1000, 10)
	tea := ts.seedProduct(t, "Tea", 500, 10)
	ada := ts.seedCustomer(t, "Ada", "ada@example.com")

	for _, qty := range []int{1, 2} {
		_, err := ts.orders.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID: ada.ID,
			Items:      []domain.LineRequest{{ProductID: mug.ID, Quantity: qty}},
		})
		require.NoError(t, err)
	}

	stats, err := ts.reports.ProductPriceStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)

	sold, err := ts.reports.UnitsSold(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sold)

	sold, err = ts.reports.UnitsSold(ctx, tea.ID)
	require.NoError(t, err)
	assert.Zero(t, sold)

	counts, err := ts.reports.CustomerOrderCounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, counts, 1)

	_, err = ts.reports.CustomerOrderCounts(ctx, -1)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	top, err := ts.reports.TopSellingProducts(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, top)

	ordered, err := ts.reports.OrderedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "Mug", ordered[0].Title)
}
