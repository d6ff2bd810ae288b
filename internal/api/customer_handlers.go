package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/store"
)

func (s *Server) registerCustomerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCustomers",
		Method:      http.MethodGet,
		Path:        "/api/v1/customers",
		Summary:     "List customers",
		Description: "Returns customers ordered by first and last name",
		Tags:        []string{"Customers"},
	}, s.handleListCustomers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCustomer",
		Method:        http.MethodPost,
		Path:          "/api/v1/customers",
		Summary:       "Create customer",
		Description:   "Creates a customer; the email must be unique",
		Tags:          []string{"Customers"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCustomer)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCustomer",
		Method:      http.MethodGet,
		Path:        "/api/v1/customers/{id}",
		Summary:     "Get customer",
		Description: "Returns a customer by ID",
		Tags:        []string{"Customers"},
	}, s.handleGetCustomer)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCustomer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/customers/{id}",
		Summary:     "Delete customer",
		Description: "Deletes a customer without orders and clears their tags",
		Tags:        []string{"Customers"},
	}, s.handleDeleteCustomer)
}

func (s *Server) registerPromotionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPromotions",
		Method:      http.MethodGet,
		Path:        "/api/v1/promotions",
		Summary:     "List promotions",
		Description: "Returns all promotions",
		Tags:        []string{"Promotions"},
	}, s.handleListPromotions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPromotion",
		Method:        http.MethodPost,
		Path:          "/api/v1/promotions",
		Summary:       "Create promotion",
		Description:   "Creates a promotion",
		Tags:          []string{"Promotions"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePromotion)
}

// === DTOs ===

// ListCustomersInput contains pagination parameters.
type ListCustomersInput struct {
	Limit  int `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Items per page"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
}

// ListCustomersOutput contains a page of customers.
type ListCustomersOutput struct {
	Body struct {
		Customers []domain.Customer `json:"customers" doc:"Customers"`
	}
}

// CustomerIDInput contains a customer ID path parameter.
type CustomerIDInput struct {
	ID int64 `path:"id" doc:"Customer ID"`
}

// CustomerOutput contains a single customer.
type CustomerOutput struct {
	Body *domain.Customer
}

// CreateCustomerInput wraps the create request for Huma.
type CreateCustomerInput struct {
	Body struct {
		FirstName  string `json:"first_name" doc:"First name"`
		LastName   string `json:"last_name" doc:"Last name"`
		Email      string `json:"email" doc:"Unique email address"`
		Phone      string `json:"phone,omitempty" doc:"Phone number"`
		BirthDate  string `json:"birth_date,omitempty" doc:"Birth date, YYYY-MM-DD"`
		Membership string `json:"membership,omitempty" enum:"B,S,G" doc:"Membership tier; defaults to B"`
	}
}

// CreatePromotionInput wraps the create request for Huma.
type CreatePromotionInput struct {
	Body struct {
		Description string  `json:"description" doc:"Promotion description"`
		Discount    float64 `json:"discount" doc:"Discount rate"`
	}
}

// PromotionOutput contains a single promotion.
type PromotionOutput struct {
	Body *domain.Promotion
}

// === Handlers ===

func (s *Server) handleListCustomers(ctx context.Context, input *ListCustomersInput) (*ListCustomersOutput, error) {
	customers, err := s.services.Catalog.ListCustomers(ctx, store.Page{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return nil, err
	}

	resp := &ListCustomersOutput{}
	resp.Body.Customers = customers
	return resp, nil
}

func (s *Server) handleGetCustomer(ctx context.Context, input *CustomerIDInput) (*CustomerOutput, error) {
	customer, err := s.services.Catalog.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CustomerOutput{Body: customer}, nil
}

func (s *Server) handleCreateCustomer(ctx context.Context, input *CreateCustomerInput) (*CustomerOutput, error) {
	customer, err := s.services.Catalog.CreateCustomer(ctx, service.CreateCustomerRequest{
		FirstName:  input.Body.FirstName,
		LastName:   input.Body.LastName,
		Email:      input.Body.Email,
		Phone:      input.Body.Phone,
		BirthDate:  input.Body.BirthDate,
		Membership: input.Body.Membership,
	})
	if err != nil {
		return nil, err
	}
	return &CustomerOutput{Body: customer}, nil
}

func (s *Server) handleDeleteCustomer(ctx context.Context, input *CustomerIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeleteCustomer(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Customer deleted"), nil
}

func (s *Server) handleListPromotions(ctx context.Context, _ *struct{}) (*PromotionsOutput, error) {
	promotions, err := s.services.Catalog.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}

	resp := &PromotionsOutput{}
	resp.Body.Promotions = promotions
	return resp, nil
}

func (s *Server) handleCreatePromotion(ctx context.Context, input *CreatePromotionInput) (*PromotionOutput, error) {
	promotion, err := s.services.Catalog.CreatePromotion(ctx, service.CreatePromotionRequest{
		Description: input.Body.Description,
		Discount:    input.Body.Discount,
	})
	if err != nil {
		return nil, err
	}
	return &PromotionOutput{Body: promotion}, nil
}
