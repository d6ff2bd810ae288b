package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/store"
)

func (s *Server) registerProductRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List products",
		Description: "Returns products matching the filters, ordered by title unless ordering is given",
		Tags:        []string{"Products"},
	}, s.handleListProducts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createProduct",
		Method:        http.MethodPost,
		Path:          "/api/v1/products",
		Summary:       "Create product",
		Description:   "Creates a product; the slug is derived from the title when omitted",
		Tags:          []string{"Products"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProduct",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get product",
		Description: "Returns a product with its tags",
		Tags:        []string{"Products"},
	}, s.handleGetProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProduct",
		Method:      http.MethodPatch,
		Path:        "/api/v1/products/{id}",
		Summary:     "Update product",
		Description: "Updates the given product fields",
		Tags:        []string{"Products"},
	}, s.handleUpdateProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProduct",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}",
		Summary:     "Delete product",
		Description: "Deletes a product no order references, and clears its tags",
		Tags:        []string{"Products"},
	}, s.handleDeleteProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProductPromotions",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/promotions",
		Summary:     "List product promotions",
		Description: "Returns the promotions applied to a product",
		Tags:        []string{"Products"},
	}, s.handleListProductPromotions)

	huma.Register(s.api, huma.Operation{
		OperationID: "addProductPromotion",
		Method:      http.MethodPost,
		Path:        "/api/v1/products/{id}/promotions",
		Summary:     "Add product promotion",
		Description: "Applies an existing promotion to a product",
		Tags:        []string{"Products"},
	}, s.handleAddProductPromotion)
}

// === DTOs ===

// ListProductsInput contains filters for listing products. Zero values
// leave a filter unset.
type ListProductsInput struct {
	CollectionID   int64   `query:"collection_id" doc:"Only products in this collection"`
	Title          string  `query:"title" doc:"Case-insensitive title substring"`
	MinPrice       float64 `query:"min_price" minimum:"0" doc:"Minimum unit price"`
	MaxPrice       float64 `query:"max_price" minimum:"0" doc:"Maximum unit price"`
	InventoryBelow int     `query:"inventory_below" minimum:"0" doc:"Only products with inventory below this"`
	Ordering       string  `query:"ordering" doc:"Comma-separated fields, '-' for descending: title, unit_price, inventory, id"`
	WithTags       bool    `query:"with_tags" doc:"Include each product's tags"`
	Limit          int     `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Items per page"`
	Offset         int     `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
}

func (in *ListProductsInput) filter() store.ProductFilter {
	f := store.ProductFilter{
		TitleContains: in.Title,
		OrderBy:       in.Ordering,
		Page:          store.Page{Limit: in.Limit, Offset: in.Offset},
	}
	if in.CollectionID > 0 {
		f.CollectionID = &in.CollectionID
	}
	if in.MinPrice > 0 {
		f.MinPrice = moneyPtr(&in.MinPrice)
	}
	if in.MaxPrice > 0 {
		f.MaxPrice = moneyPtr(&in.MaxPrice)
	}
	if in.InventoryBelow > 0 {
		f.InventoryBelow = &in.InventoryBelow
	}
	return f
}

// ListProductsOutput contains a page of products.
type ListProductsOutput struct {
	Body struct {
		Products []service.ProductView `json:"products" doc:"Products"`
	}
}

// ProductIDInput contains a product ID path parameter.
type ProductIDInput struct {
	ID int64 `path:"id" doc:"Product ID"`
}

// ProductOutput contains a single product.
type ProductOutput struct {
	Body *service.ProductView
}

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Title        string  `json:"title" doc:"Product title"`
	Slug         string  `json:"slug,omitempty" doc:"URL slug; derived from the title when omitted"`
	Description  string  `json:"description,omitempty" doc:"Description"`
	UnitPrice    float64 `json:"unit_price" doc:"Unit price, e.g. 19.99"`
	Inventory    int     `json:"inventory,omitempty" doc:"Units in stock"`
	CollectionID int64   `json:"collection" doc:"Collection ID"`
}

// CreateProductInput wraps the create request for Huma.
type CreateProductInput struct {
	Body CreateProductRequest
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Title        *string  `json:"title,omitempty" doc:"Product title"`
	Slug         *string  `json:"slug,omitempty" doc:"URL slug"`
	Description  *string  `json:"description,omitempty" doc:"Description"`
	UnitPrice    *float64 `json:"unit_price,omitempty" doc:"Unit price"`
	Inventory    *int     `json:"inventory,omitempty" doc:"Units in stock"`
	CollectionID *int64   `json:"collection,omitempty" doc:"Collection ID"`
}

// UpdateProductInput wraps the update request for Huma.
type UpdateProductInput struct {
	ID   int64 `path:"id" doc:"Product ID"`
	Body UpdateProductRequest
}

// PromotionsOutput contains promotions.
type PromotionsOutput struct {
	Body struct {
		Promotions []domain.Promotion `json:"promotions" doc:"Promotions"`
	}
}

// AddProductPromotionInput applies a promotion to a product.
type AddProductPromotionInput struct {
	ID   int64 `path:"id" doc:"Product ID"`
	Body struct {
		PromotionID int64 `json:"promotion_id" doc:"Promotion ID"`
	}
}

// MessageOutput is a generic response with a message.
type MessageOutput struct {
	Body struct {
		Message string `json:"message" doc:"Response message"`
	}
}

func message(msg string) *MessageOutput {
	out := &MessageOutput{}
	out.Body.Message = msg
	return out
}

func moneyPtr(f *float64) *domain.Money {
	if f == nil {
		return nil
	}
	m := domain.MoneyFromFloat(*f)
	return &m
}

// === Handlers ===

func (s *Server) handleListProducts(ctx context.Context, input *ListProductsInput) (*ListProductsOutput, error) {
	products, err := s.services.Catalog.ListProducts(ctx, input.filter(), input.WithTags)
	if err != nil {
		return nil, err
	}

	resp := &ListProductsOutput{}
	resp.Body.Products = products
	return resp, nil
}

func (s *Server) handleGetProduct(ctx context.Context, input *ProductIDInput) (*ProductOutput, error) {
	product, err := s.services.Catalog.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProductOutput{Body: product}, nil
}

func (s *Server) handleCreateProduct(ctx context.Context, input *CreateProductInput) (*ProductOutput, error) {
	product, err := s.services.Catalog.CreateProduct(ctx, service.CreateProductRequest{
		Title:        input.Body.Title,
		Slug:         input.Body.Slug,
		Description:  input.Body.Description,
		UnitPrice:    domain.MoneyFromFloat(input.Body.UnitPrice),
		Inventory:    input.Body.Inventory,
		CollectionID: input.Body.CollectionID,
	})
	if err != nil {
		return nil, err
	}
	return &ProductOutput{Body: product}, nil
}

func (s *Server) handleUpdateProduct(ctx context.Context, input *UpdateProductInput) (*ProductOutput, error) {
	product, err := s.services.Catalog.UpdateProduct(ctx, input.ID, service.UpdateProductRequest{
		Title:        input.Body.Title,
		Slug:         input.Body.Slug,
		Description:  input.Body.Description,
		UnitPrice:    moneyPtr(input.Body.UnitPrice),
		Inventory:    input.Body.Inventory,
		CollectionID: input.Body.CollectionID,
	})
	if err != nil {
		return nil, err
	}
	return &ProductOutput{Body: product}, nil
}

func (s *Server) handleDeleteProduct(ctx context.Context, input *ProductIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeleteProduct(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Product deleted"), nil
}

func (s *Server) handleListProductPromotions(ctx context.Context, input *ProductIDInput) (*PromotionsOutput, error) {
	promotions, err := s.services.Catalog.ListProductPromotions(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := &PromotionsOutput{}
	resp.Body.Promotions = promotions
	return resp, nil
}

func (s *Server) handleAddProductPromotion(ctx context.Context, input *AddProductPromotionInput) (*MessageOutput, error) {
	if err := s.services.Catalog.AddProductPromotion(ctx, input.ID, input.Body.PromotionID); err != nil {
		return nil, err
	}
	return message("Promotion applied"), nil
}
