package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// orderColumns must match the scan order in scanOrder.
const orderColumns = `o.id, o.reference, o.placed_at, o.payment_status, o.customer_id`

func scanOrder(scanner interface{ Scan(dest ...any) error }) (*domain.Order, error) {
	var (
		o        domain.Order
		placedAt string
	)
	if err := scanner.Scan(&o.ID, &o.Reference, &placedAt, &o.PaymentStatus, &o.CustomerID); err != nil {
		return nil, err
	}
	var err error
	if o.PlacedAt, err = parseTime(placedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// PlaceOrder inserts the order and its items in one transaction.
func (s *Store) PlaceOrder(ctx context.Context, o *domain.Order, lines []domain.LineRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.placeOrderTx(ctx, tx, o, lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// PlaceOrderFromCart places an order for the cart's lines and deletes the cart,
// all in one transaction.
func (s *Store) PlaceOrderFromCart(ctx context.Context, o *domain.Order, cartID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cart, err := s.getCart(ctx, tx, cartID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return fmt.Errorf("cart %s is empty: %w", cartID, store.ErrInvalidInput)
	}

	lines := make([]domain.LineRequest, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = domain.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	if err := s.placeOrderTx(ctx, tx, o, lines); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) placeOrderTx(ctx context.Context, tx *sql.Tx, o *domain.Order, lines []domain.LineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("order has no items: %w", store.ErrInvalidInput)
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now().UTC()
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPending
	}

	// 1. Insert the order.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (reference, placed_at, payment_status, customer_id)
		VALUES (?, ?, ?, ?)`,
		o.Reference,
		formatTime(o.PlacedAt),
		o.PaymentStatus,
		o.CustomerID,
	)
	if err != nil {
		// The only foreign key on orders is the customer.
		err = mapWriteError(err, "insert order")
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("customer %d: %w", o.CustomerID, store.ErrNotFound)
		}
		return err
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	// 2. Snapshot prices and insert items.
	o.Items = make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("product %d: quantity must be positive: %w", line.ProductID, store.ErrInvalidInput)
		}

		var unitPrice int64
		err := tx.QueryRowContext(ctx,
			`SELECT unit_price FROM products WHERE id = ?`, line.ProductID,
		).Scan(&unitPrice)
		if err != nil {
			return notFound(err, "product %d", line.ProductID)
		}

		// 3. Decrement inventory, guarded so it never goes negative.
		upd, err := tx.ExecContext(ctx, `
			UPDATE products SET inventory = inventory - ?, last_update = ?
			WHERE id = ? AND inventory >= ?`,
			line.Quantity, formatTime(time.Now().UTC()), line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement inventory: %w", err)
		}
		if n, _ := upd.RowsAffected(); n == 0 {
			return fmt.Errorf("product %d: insufficient inventory: %w", line.ProductID, store.ErrConflict)
		}

		item := domain.OrderItem{
			OrderID:   o.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: domain.Money(unitPrice),
		}
		ins, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.Quantity, unitPrice,
		)
		if err != nil {
			return mapWriteError(err, "insert order item")
		}
		if item.ID, err = ins.LastInsertId(); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}

	return nil
}

// GetOrder returns an order with its customer and items with their products.
func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order %d", id)
	}

	orders := []domain.Order{*o}
	if err := s.loadOrderRelations(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListRecentOrders returns the newest orders with customers and items loaded.
func (s *Store) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders o
		ORDER BY o.placed_at DESC, o.id DESC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadOrderRelations(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadOrderRelations fills Customer and Items (with Product) using one query
// per relation rather than one per order.
func (s *Store) loadOrderRelations(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]any, len(orders))
	customerIDs := make([]any, 0, len(orders))
	seenCustomer := make(map[int64]bool)
	byID := make(map[int64]*domain.Order, len(orders))
	for i := range orders {
		orders[i].Items = []domain.OrderItem{}
		orderIDs[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
		if !seenCustomer[orders[i].CustomerID] {
			seenCustomer[orders[i].CustomerID] = true
			customerIDs = append(customerIDs, orders[i].CustomerID)
		}
	}

	// Customers (select_related shape).
	customers := make(map[int64]*domain.Customer, len(customerIDs))
	crows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers c WHERE c.id IN (`+placeholders(len(customerIDs))+`)`,
		customerIDs...)
	if err != nil {
		return fmt.Errorf("query order customers: %w", err)
	}
	for crows.Next() {
		c, err := scanCustomer(crows)
		if err != nil {
			crows.Close()
			return err
		}
		customers[c.ID] = c
	}
	crows.Close()
	if err := crows.Err(); err != nil {
		return err
	}

	// Items with products (prefetch shape).
	irows, err := s.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, `+productColumns+`
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (`+placeholders(len(orderIDs))+`)
		ORDER BY oi.id ASC`, orderIDs...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer irows.Close()

	for irows.Next() {
		var item domain.OrderItem
		p, err := scanProduct(prefixScanner{irows, []any{
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
		}})
		if err != nil {
			return err
		}
		item.Product = p
		if o := byID[item.OrderID]; o != nil {
			o.Items = append(o.Items, item)
		}
	}
	if err := irows.Err(); err != nil {
		return err
	}

	for i := range orders {
		orders[i].Customer = customers[orders[i].CustomerID]
	}
	return nil
}

// UpdatePaymentStatus sets an order's payment status.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET payment_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapWriteError(err, "update payment status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return nil
}
