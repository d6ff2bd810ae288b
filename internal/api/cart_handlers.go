package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
)

func (s *Server) registerCartRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createCart",
		Method:        http.MethodPost,
		Path:          "/api/v1/carts",
		Summary:       "Create cart",
		Description:   "Creates an empty anonymous cart",
		Tags:          []string{"Carts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCart",
		Method:      http.MethodGet,
		Path:        "/api/v1/carts/{id}",
		Summary:     "Get cart",
		Description: "Returns a cart with its items and total price",
		Tags:        []string{"Carts"},
	}, s.handleGetCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/carts/{id}",
		Summary:     "Delete cart",
		Description: "Deletes a cart and its items",
		Tags:        []string{"Carts"},
	}, s.handleDeleteCart)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addCartItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/carts/{id}/items",
		Summary:       "Add cart item",
		Description:   "Adds a product to a cart; adding a product twice increases its quantity",
		Tags:          []string{"Carts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddCartItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCartItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/carts/{id}/items/{itemID}",
		Summary:     "Update cart item",
		Description: "Sets the quantity of a cart item",
		Tags:        []string{"Carts"},
	}, s.handleUpdateCartItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCartItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/carts/{id}/items/{itemID}",
		Summary:     "Remove cart item",
		Description: "Removes an item from a cart",
		Tags:        []string{"Carts"},
	}, s.handleRemoveCartItem)
}

// === DTOs ===

// CartIDInput contains a cart ID path parameter.
type CartIDInput struct {
	ID string `path:"id" doc:"Cart UUID"`
}

// CartOutput contains a cart.
type CartOutput struct {
	Body *service.CartView
}

// AddCartItemInput adds a product to a cart.
type AddCartItemInput struct {
	ID   string `path:"id" doc:"Cart UUID"`
	Body struct {
		ProductID int64 `json:"product_id" doc:"Product ID"`
		Quantity  int   `json:"quantity" doc:"Quantity to add, at least 1"`
	}
}

// UpdateCartItemInput sets a cart item's quantity.
type UpdateCartItemInput struct {
	ID     string `path:"id" doc:"Cart UUID"`
	ItemID int64  `path:"itemID" doc:"Cart item ID"`
	Body   struct {
		Quantity int `json:"quantity" doc:"New quantity, at least 1"`
	}
}

// CartItemInput identifies one cart item.
type CartItemInput struct {
	ID     string `path:"id" doc:"Cart UUID"`
	ItemID int64  `path:"itemID" doc:"Cart item ID"`
}

// CartItemOutput contains a cart item.
type CartItemOutput struct {
	Body *domain.CartItem
}

// === Handlers ===

func (s *Server) handleCreateCart(ctx context.Context, _ *struct{}) (*CartOutput, error) {
	cart, err := s.services.Carts.CreateCart(ctx)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: cart}, nil
}

func (s *Server) handleGetCart(ctx context.Context, input *CartIDInput) (*CartOutput, error) {
	cart, err := s.services.Carts.GetCart(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: cart}, nil
}

func (s *Server) handleDeleteCart(ctx context.Context, input *CartIDInput) (*MessageOutput, error) {
	if err := s.services.Carts.DeleteCart(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Cart deleted"), nil
}

func (s *Server) handleAddCartItem(ctx context.Context, input *AddCartItemInput) (*CartItemOutput, error) {
	item, err := s.services.Carts.AddItem(ctx, input.ID, input.Body.ProductID, input.Body.Quantity)
	if err != nil {
		return nil, err
	}
	return &CartItemOutput{Body: item}, nil
}

func (s *Server) handleUpdateCartItem(ctx context.Context, input *UpdateCartItemInput) (*CartItemOutput, error) {
	item, err := s.services.Carts.UpdateItem(ctx, input.ID, input.ItemID, input.Body.Quantity)
	if err != nil {
		return nil, err
	}
	return &CartItemOutput{Body: item}, nil
}

func (s *Server) handleRemoveCartItem(ctx context.Context, input *CartItemInput) (*MessageOutput, error) {
	if err := s.services.Carts.RemoveItem(ctx, input.ID, input.ItemID); err != nil {
		return nil, err
	}
	return message("Item removed"), nil
}
