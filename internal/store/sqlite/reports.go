package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

// ProductPriceStats aggregates unit prices, optionally within one collection.
func (s *Store) ProductPriceStats(ctx context.Context, collectionID *int64) (domain.PriceStats, error) {
	query := `SELECT COUNT(id), MIN(unit_price), MAX(unit_price), AVG(unit_price) FROM products`
	var args []any
	if collectionID != nil {
		query += ` WHERE collection_id = ?`
		args = append(args, *collectionID)
	}

	var (
		stats  domain.PriceStats
		lo, hi sql.NullInt64
		avg    sql.NullFloat64
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Count, &lo, &hi, &avg); err != nil {
		return domain.PriceStats{}, fmt.Errorf("query price stats: %w", err)
	}
	stats.Min = domain.Money(lo.Int64)
	stats.Max = domain.Money(hi.Int64)
	stats.Avg = domain.Money(math.Round(avg.Float64))
	return stats, nil
}

// UnitsSold sums order item quantities for a product.
func (s *Store) UnitsSold(ctx context.Context, productID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE product_id = ?`, productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("query units sold: %w", err)
	}
	return n, nil
}

// CustomerOrderCounts returns customers with more than minOrders orders.
func (s *Store) CustomerOrderCounts(ctx context.Context, minOrders int) ([]domain.CustomerOrderCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+`, COUNT(o.id) AS orders_count
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.id
		GROUP BY c.id
		HAVING orders_count > ?
		ORDER BY c.first_name ASC, c.last_name ASC, c.id ASC`, minOrders)
	if err != nil {
		return nil, fmt.Errorf("query customer order counts: %w", err)
	}
	defer rows.Close()

	out := []domain.CustomerOrderCount{}
	for rows.Next() {
		var count int
		c, err := scanCustomer(suffixScanner{rows, []any{&count}})
		if err != nil {
			return nil, err
		}
		out = append(out, domain.CustomerOrderCount{Customer: *c, OrdersCount: count})
	}
	return out, rows.Err()
}

// CustomerSpending annotates every customer with total spent and last order ID.
func (s *Store) CustomerSpending(ctx context.Context) ([]domain.CustomerSpending, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+`,
			COALESCE((
				SELECT SUM(oi.unit_price * oi.quantity)
				FROM orders o JOIN order_items oi ON oi.order_id = o.id
				WHERE o.customer_id = c.id
			), 0),
			(SELECT MAX(o.id) FROM orders o WHERE o.customer_id = c.id)
		FROM customers c
		ORDER BY c.first_name ASC, c.last_name ASC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query customer spending: %w", err)
	}
	defer rows.Close()

	out := []domain.CustomerSpending{}
	for rows.Next() {
		var (
			total     int64
			lastOrder sql.NullInt64
		)
		c, err := scanCustomer(suffixScanner{rows, []any{&total, &lastOrder}})
		if err != nil {
			return nil, err
		}
		out = append(out, domain.CustomerSpending{
			Customer:    *c,
			TotalSpent:  domain.Money(total),
			LastOrderID: int64Ptr(lastOrder),
		})
	}
	return out, rows.Err()
}

// TopSellingProducts returns products ordered by total sales, descending.
func (s *Store) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`,
			SUM(oi.quantity) AS units_sold,
			SUM(oi.quantity * oi.unit_price) AS total_sales
		FROM products p
		JOIN order_items oi ON oi.product_id = p.id
		GROUP BY p.id
		ORDER BY total_sales DESC, p.id ASC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	out := []domain.ProductSales{}
	for rows.Next() {
		var (
			units int
			total int64
		)
		p, err := scanProduct(suffixScanner{rows, []any{&units, &total}})
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ProductSales{Product: *p, UnitsSold: units, TotalSales: domain.Money(total)})
	}
	return out, rows.Err()
}

// OrderedProducts returns the distinct products appearing in any order, by title.
func (s *Store) OrderedProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.id IN (SELECT DISTINCT product_id FROM order_items)
		ORDER BY p.title ASC, p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ordered products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// suffixScanner appends tail to the destinations of the wrapped scan, for
// annotated rows.
type suffixScanner struct {
	rows *sql.Rows
	tail []any
}

func (p suffixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(append([]any{}, dest...), p.tail...)...)
}
