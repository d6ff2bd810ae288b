package service

import (
	"context"
	"log/slog"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/id"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// CartService manages anonymous shopping carts keyed by UUID.
type CartService struct {
	store  store.Carts
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts store.Carts, logger *slog.Logger) *CartService {
	return &CartService{store: carts, logger: logger}
}

// CartView is a cart with its current total.
type CartView struct {
	domain.Cart
	TotalPrice domain.Money `json:"total_price"`
}

func newCartView(c *domain.Cart) *CartView {
	return &CartView{Cart: *c, TotalPrice: c.Total()}
}

// CreateCart creates an empty cart.
func (s *CartService) CreateCart(ctx context.Context) (*CartView, error) {
	c := &domain.Cart{ID: id.NewCartID()}
	if err := s.store.CreateCart(ctx, c); err != nil {
		return nil, storeError(err)
	}
	s.logger.Debug("cart created", "cart_id", c.ID)
	return newCartView(c), nil
}

// GetCart returns a cart with its items and total.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*CartView, error) {
	cartID, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return nil, storeError(err)
	}
	return newCartView(c), nil
}

// AddItem adds quantity of a product. A product already in the cart has its
// quantity increased.
func (s *CartService) AddItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.CartItem, error) {
	cartID, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domainerrors.Validation("quantity must be at least 1")
	}

	item, err := s.store.AddCartItem(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

// UpdateItem sets an item's quantity.
func (s *CartService) UpdateItem(ctx context.Context, cartID string, itemID int64, quantity int) (*domain.CartItem, error) {
	cartID, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domainerrors.Validation("quantity must be at least 1")
	}

	item, err := s.store.UpdateCartItem(ctx, cartID, itemID, quantity)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

// RemoveItem removes one item from a cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID string, itemID int64) error {
	cartID, err := parseCartID(cartID)
	if err != nil {
		return err
	}
	return storeError(s.store.RemoveCartItem(ctx, cartID, itemID))
}

// DeleteCart deletes a cart and its items.
func (s *CartService) DeleteCart(ctx context.Context, cartID string) error {
	cartID, err := parseCartID(cartID)
	if err != nil {
		return err
	}
	return storeError(s.store.DeleteCart(ctx, cartID))
}

// parseCartID reports a malformed cart ID as not found: no such cart can exist.
func parseCartID(raw string) (string, error) {
	cartID, err := id.ParseCartID(raw)
	if err != nil {
		return "", domainerrors.NotFoundf("cart %q not found", raw).WithCause(err)
	}
	return cartID, nil
}
