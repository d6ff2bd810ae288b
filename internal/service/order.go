package service

import (
	"context"
	"log/slog"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/id"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/validation"
)

// DefaultRecentOrders is how many orders ListRecentOrders returns by default.
const DefaultRecentOrders = 10

// OrderService places and reads orders.
type OrderService struct {
	store    store.Orders
	validate *validation.Validator
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders store.Orders, logger *slog.Logger) *OrderService {
	return &OrderService{store: orders, validate: validation.New(), logger: logger}
}

// PlaceOrderRequest places an order either from explicit lines or from a cart.
type PlaceOrderRequest struct {
	CustomerID int64                `json:"customer_id" validate:"required,gt=0"`
	CartID     string               `json:"cart_id,omitempty" validate:"required_without=Items,excluded_with=Items"`
	Items      []domain.LineRequest `json:"items,omitempty" validate:"required_without=CartID,dive"`
}

// OrderView is an order with its total.
type OrderView struct {
	domain.Order
	TotalPrice domain.Money `json:"total_price"`
}

func newOrderView(o *domain.Order) *OrderView {
	return &OrderView{Order: *o, TotalPrice: o.Total()}
}

// PlaceOrder places an order in a single transaction: prices are snapshotted
// and inventory decremented, or nothing is written at all.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderView, error) {
	// 1. Validate the request shape.
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, domainerrors.Validationf("product %d: quantity must be at least 1", line.ProductID)
		}
	}

	// 2. Mint the customer-facing reference.
	ref, err := id.OrderReference()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate order reference")
	}
	o := &domain.Order{
		Reference:     ref,
		PaymentStatus: domain.PaymentPending,
		CustomerID:    req.CustomerID,
	}

	// 3. Place it.
	if req.CartID != "" {
		cartID, err := parseCartID(req.CartID)
		if err != nil {
			return nil, err
		}
		err = s.store.PlaceOrderFromCart(ctx, o, cartID)
		if err != nil {
			return nil, storeError(err)
		}
	} else if err := s.store.PlaceOrder(ctx, o, req.Items); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("order placed",
		"order_id", o.ID,
		"reference", o.Reference,
		"customer_id", o.CustomerID,
		"items", len(o.Items),
	)
	return newOrderView(o), nil
}

// GetOrder returns an order with its customer and items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeError(err)
	}
	return newOrderView(o), nil
}

// ListRecentOrders returns the newest orders first. limit <= 0 uses DefaultRecentOrders.
func (s *OrderService) ListRecentOrders(ctx context.Context, limit int) ([]OrderView, error) {
	if limit <= 0 {
		limit = DefaultRecentOrders
	}
	orders, err := s.store.ListRecentOrders(ctx, limit)
	if err != nil {
		return nil, storeError(err)
	}
	views := make([]OrderView, len(orders))
	for i := range orders {
		views[i] = *newOrderView(&orders[i])
	}
	return views, nil
}

// UpdatePaymentStatus sets an order's payment status to P, C or F.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, status string) (*OrderView, error) {
	if !domain.ValidPaymentStatus(status) {
		return nil, domainerrors.ValidationWithDetails("invalid payment status", map[string]string{
			"payment_status": "must be one of P, C, F",
		})
	}
	if err := s.store.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("payment status updated", "order_id", orderID, "payment_status", status)
	return s.GetOrder(ctx, orderID)
}
