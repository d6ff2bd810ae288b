package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateCart inserts an empty cart. The caller sets c.ID.
func (s *Store) CreateCart(ctx context.Context, c *domain.Cart) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (id, created_at) VALUES (?, ?)`,
		c.ID, formatTime(c.CreatedAt),
	)
	if err != nil {
		return mapWriteError(err, "insert cart")
	}
	c.Items = []domain.CartItem{}
	return nil
}

// GetCart returns the cart with its items and their products, items by ID.
func (s *Store) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	return s.getCart(ctx, s.db, id)
}

func (s *Store) getCart(ctx context.Context, q querier, id string) (*domain.Cart, error) {
	var (
		c         = domain.Cart{ID: id}
		createdAt string
	)
	err := q.QueryRowContext(ctx, `SELECT created_at FROM carts WHERE id = ?`, id).Scan(&createdAt)
	if err != nil {
		return nil, notFound(err, "cart %s", id)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, ci.quantity, `+productColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	c.Items = []domain.CartItem{}
	for rows.Next() {
		item := domain.CartItem{CartID: id}
		p, err := scanProduct(prefixScanner{rows, []any{&item.ID, &item.ProductID, &item.Quantity}})
		if err != nil {
			return nil, err
		}
		item.Product = p
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AddCartItem adds quantity of a product to a cart, increasing an existing line.
func (s *Store) AddCartItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.CartItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, `SELECT 1 FROM carts WHERE id = ?`, cartID, "cart %s"); err != nil {
		return nil, err
	}
	if err := requireRow(ctx, tx, `SELECT 1 FROM products WHERE id = ?`, productID, "product %d"); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		cartID, productID, quantity,
	); err != nil {
		return nil, mapWriteError(err, "upsert cart item")
	}

	item := &domain.CartItem{CartID: cartID, ProductID: productID}
	if err := tx.QueryRowContext(ctx,
		`SELECT id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID,
	).Scan(&item.ID, &item.Quantity); err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return item, nil
}

// UpdateCartItem sets the quantity of one line.
func (s *Store) UpdateCartItem(ctx context.Context, cartID string, itemID int64, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{ID: itemID, CartID: cartID, Quantity: quantity}
	err := s.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = ?
		WHERE id = ? AND cart_id = ?
		RETURNING product_id`,
		quantity, itemID, cartID,
	).Scan(&item.ProductID)
	if err != nil {
		if mapped := notFound(err, "cart item %d", itemID); mapped != err {
			return nil, mapped
		}
		return nil, mapWriteError(err, "update cart item")
	}
	return item, nil
}

// RemoveCartItem deletes one line.
func (s *Store) RemoveCartItem(ctx context.Context, cartID string, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, store.ErrNotFound)
	}
	return nil
}

// DeleteCart deletes a cart; its items cascade.
func (s *Store) DeleteCart(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cart %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// requireRow fails with store.ErrNotFound when query returns no row.
func requireRow(ctx context.Context, q querier, query string, arg any, what string) error {
	var one int
	if err := q.QueryRowContext(ctx, query, arg).Scan(&one); err != nil {
		return notFound(err, what, arg)
	}
	return nil
}

// prefixScanner scans leading columns into head, then hands the rest to the wrapped scan.
type prefixScanner struct {
	rows *sql.Rows
	head []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(append([]any{}, p.head...), dest...)...)
}
