package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

func (s *Server) registerReportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "productPriceStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/price-stats",
		Summary:     "Product price statistics",
		Description: "Returns count, min, max and average unit price, optionally within one collection",
		Tags:        []string{"Reports"},
	}, s.handlePriceStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "unitsSold",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/units-sold/{productID}",
		Summary:     "Units sold",
		Description: "Returns the total quantity ordered of a product",
		Tags:        []string{"Reports"},
	}, s.handleUnitsSold)

	huma.Register(s.api, huma.Operation{
		OperationID: "customerOrderCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/customer-orders",
		Summary:     "Customer order counts",
		Description: "Returns customers with more than min_orders orders",
		Tags:        []string{"Reports"},
	}, s.handleCustomerOrders)

	huma.Register(s.api, huma.Operation{
		OperationID: "customerSpending",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/customer-spending",
		Summary:     "Customer spending",
		Description: "Returns each customer's total spent and last order",
		Tags:        []string{"Reports"},
	}, s.handleCustomerSpending)

	huma.Register(s.api, huma.Operation{
		OperationID: "topProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/top-products",
		Summary:     "Top selling products",
		Description: "Returns products ordered by total sales, descending",
		Tags:        []string{"Reports"},
	}, s.handleTopProducts)

	huma.Register(s.api, huma.Operation{
		OperationID: "orderedProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/ordered-products",
		Summary:     "Ordered products",
		Description: "Returns the distinct products that appear in any order, by title",
		Tags:        []string{"Reports"},
	}, s.handleOrderedProducts)
}

// === DTOs ===

// PriceStatsInput optionally restricts stats to a collection.
type PriceStatsInput struct {
	CollectionID int64 `query:"collection_id" doc:"Only products in this collection"`
}

// PriceStatsOutput contains price statistics.
type PriceStatsOutput struct {
	Body domain.PriceStats
}

// UnitsSoldInput contains a product ID path parameter.
type UnitsSoldInput struct {
	ProductID int64 `path:"productID" doc:"Product ID"`
}

// UnitsSoldOutput contains a product's sold quantity.
type UnitsSoldOutput struct {
	Body struct {
		ProductID int64 `json:"product_id" doc:"Product ID"`
		UnitsSold int   `json:"units_sold" doc:"Total quantity ordered"`
	}
}

// CustomerOrdersInput sets the order-count threshold.
type CustomerOrdersInput struct {
	MinOrders int `query:"min_orders" default:"0" doc:"Only customers with more orders than this"`
}

// CustomerOrdersOutput contains customers annotated with order counts.
type CustomerOrdersOutput struct {
	Body struct {
		Customers []domain.CustomerOrderCount `json:"customers" doc:"Customers with order counts"`
	}
}

// CustomerSpendingOutput contains customers annotated with spending.
type CustomerSpendingOutput struct {
	Body struct {
		Customers []domain.CustomerSpending `json:"customers" doc:"Customers with total spent"`
	}
}

// TopProductsInput bounds the top products list.
type TopProductsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" default:"5" doc:"Max products to return"`
}

// TopProductsOutput contains products annotated with sales.
type TopProductsOutput struct {
	Body struct {
		Products []domain.ProductSales `json:"products" doc:"Products by total sales"`
	}
}

// OrderedProductsOutput contains products that were ordered.
type OrderedProductsOutput struct {
	Body struct {
		Products []domain.Product `json:"products" doc:"Products ordered at least once"`
	}
}

// === Handlers ===

func (s *Server) handlePriceStats(ctx context.Context, input *PriceStatsInput) (*PriceStatsOutput, error) {
	var collectionID *int64
	if input.CollectionID > 0 {
		collectionID = &input.CollectionID
	}
	stats, err := s.services.Reports.ProductPriceStats(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return &PriceStatsOutput{Body: stats}, nil
}

func (s *Server) handleUnitsSold(ctx context.Context, input *UnitsSoldInput) (*UnitsSoldOutput, error) {
	n, err := s.services.Reports.UnitsSold(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	resp := &UnitsSoldOutput{}
	resp.Body.ProductID = input.ProductID
	resp.Body.UnitsSold = n
	return resp, nil
}

func (s *Server) handleCustomerOrders(ctx context.Context, input *CustomerOrdersInput) (*CustomerOrdersOutput, error) {
	counts, err := s.services.Reports.CustomerOrderCounts(ctx, input.MinOrders)
	if err != nil {
		return nil, err
	}

	resp := &CustomerOrdersOutput{}
	resp.Body.Customers = counts
	return resp, nil
}

func (s *Server) handleCustomerSpending(ctx context.Context, _ *struct{}) (*CustomerSpendingOutput, error) {
	spending, err := s.services.Reports.CustomerSpending(ctx)
	if err != nil {
		return nil, err
	}

	resp := &CustomerSpendingOutput{}
	resp.Body.Customers = spending
	return resp, nil
}

func (s *Server) handleTopProducts(ctx context.Context, input *TopProductsInput) (*TopProductsOutput, error) {
	products, err := s.services.Reports.TopSellingProducts(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	resp := &TopProductsOutput{}
	resp.Body.Products = products
	return resp, nil
}

func (s *Server) handleOrderedProducts(ctx context.Context, _ *struct{}) (*OrderedProductsOutput, error) {
	products, err := s.services.Reports.OrderedProducts(ctx)
	if err != nil {
		return nil, err
	}

	resp := &OrderedProductsOutput{}
	resp.Body.Products = products
	return resp, nil
}
