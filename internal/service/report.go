package service

import (
	"context"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// DefaultTopProducts is how many products TopSellingProducts returns by default.
const DefaultTopProducts = 5

// ReportService runs aggregate reports over the catalog and orders.
type ReportService struct {
	store store.Reports
}

// NewReportService creates a new report service.
func NewReportService(reports store.Reports) *ReportService {
	return &ReportService{store: reports}
}

// ProductPriceStats returns count, min, max and average unit price, optionally
// within one collection.
func (s *ReportService) ProductPriceStats(ctx context.Context, collectionID *int64) (domain.PriceStats, error) {
	stats, err := s.store.ProductPriceStats(ctx, collectionID)
	return stats, storeError(err)
}

// UnitsSold returns the total quantity ordered of a product.
func (s *ReportService) UnitsSold(ctx context.Context, productID int64) (int, error) {
	n, err := s.store.UnitsSold(ctx, productID)
	return n, storeError(err)
}

// CustomerOrderCounts returns customers with more than minOrders orders.
func (s *ReportService) CustomerOrderCounts(ctx context.Context, minOrders int) ([]domain.CustomerOrderCount, error) {
	if minOrders < 0 {
		return nil, domainerrors.Validation("min_orders must not be negative")
	}
	counts, err := s.store.CustomerOrderCounts(ctx, minOrders)
	return counts, storeError(err)
}

// CustomerSpending returns each customer's total spent and last order.
func (s *ReportService) CustomerSpending(ctx context.Context) ([]domain.CustomerSpending, error) {
	spending, err := s.store.CustomerSpending(ctx)
	return spending, storeError(err)
}

// TopSellingProducts returns products by total sales, best first.
func (s *ReportService) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	sales, err := s.store.TopSellingProducts(ctx, limit)
	return sales, storeError(err)
}

// OrderedProducts returns the distinct products that have been ordered, by title.
func (s *ReportService) OrderedProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.OrderedProducts(ctx)
	return products, storeError(err)
}
