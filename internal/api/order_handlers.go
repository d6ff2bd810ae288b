package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
)

func (s *Server) registerOrderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "placeOrder",
		Method:        http.MethodPost,
		Path:          "/api/v1/orders",
		Summary:       "Place order",
		Description:   "Places an order from explicit items or from a cart. Prices are snapshotted and inventory decremented atomically.",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusCreated,
	}, s.handlePlaceOrder)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOrders",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders",
		Summary:     "List recent orders",
		Description: "Returns the most recent orders, newest first",
		Tags:        []string{"Orders"},
	}, s.handleListOrders)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOrder",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders/{id}",
		Summary:     "Get order",
		Description: "Returns an order with its customer and items",
		Tags:        []string{"Orders"},
	}, s.handleGetOrder)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePaymentStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/orders/{id}",
		Summary:     "Update payment status",
		Description: "Sets the payment status to P (pending), C (complete) or F (failed)",
		Tags:        []string{"Orders"},
	}, s.handleUpdatePaymentStatus)
}

// === DTOs ===

// PlaceOrderInput wraps the order request for Huma. Exactly one of cart_id
// and items must be given.
type PlaceOrderInput struct {
	Body struct {
		CustomerID int64                `json:"customer_id" doc:"Customer placing the order"`
		CartID     string               `json:"cart_id,omitempty" doc:"Cart to order; the cart is deleted"`
		Items      []domain.LineRequest `json:"items,omitempty" doc:"Products and quantities to order"`
	}
}

// OrderOutput contains a single order.
type OrderOutput struct {
	Body *service.OrderView
}

// ListOrdersInput bounds the recent-orders list.
type ListOrdersInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" default:"10" doc:"Max orders to return"`
}

// ListOrdersOutput contains recent orders.
type ListOrdersOutput struct {
	Body struct {
		Orders []service.OrderView `json:"orders" doc:"Orders, newest first"`
	}
}

// OrderIDInput contains an order ID path parameter.
type OrderIDInput struct {
	ID int64 `path:"id" doc:"Order ID"`
}

// UpdatePaymentStatusInput sets an order's payment status.
type UpdatePaymentStatusInput struct {
	ID   int64 `path:"id" doc:"Order ID"`
	Body struct {
		PaymentStatus string `json:"payment_status" doc:"P, C or F"`
	}
}

// === Handlers ===

func (s *Server) handlePlaceOrder(ctx context.Context, input *PlaceOrderInput) (*OrderOutput, error) {
	order, err := s.services.Orders.PlaceOrder(ctx, service.PlaceOrderRequest{
		CustomerID: input.Body.CustomerID,
		CartID:     input.Body.CartID,
		Items:      input.Body.Items,
	})
	if err != nil {
		return nil, err
	}
	return &OrderOutput{Body: order}, nil
}

func (s *Server) handleListOrders(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
	orders, err := s.services.Orders.ListRecentOrders(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	resp := &ListOrdersOutput{}
	resp.Body.Orders = orders
	return resp, nil
}

func (s *Server) handleGetOrder(ctx context.Context, input *OrderIDInput) (*OrderOutput, error) {
	order, err := s.services.Orders.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &OrderOutput{Body: order}, nil
}

func (s *Server) handleUpdatePaymentStatus(ctx context.Context, input *UpdatePaymentStatusInput) (*OrderOutput, error) {
	order, err := s.services.Orders.UpdatePaymentStatus(ctx, input.ID, input.Body.PaymentStatus)
	if err != nil {
		return nil, err
	}
	return &OrderOutput{Body: order}, nil
}
