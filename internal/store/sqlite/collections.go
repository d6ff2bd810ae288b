package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// collectionColumns must match the scan order in scanCollection.
const collectionColumns = `c.id, c.title, c.featured_product_id,
	(SELECT COUNT(*) FROM products p WHERE p.collection_id = c.id)`

func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.Collection, error) {
	var (
		c        domain.Collection
		featured sql.NullInt64
	)
	if err := scanner.Scan(&c.ID, &c.Title, &featured, &c.ProductsCount); err != nil {
		return nil, err
	}
	c.FeaturedProductID = int64Ptr(featured)
	return &c, nil
}

// ListCollections returns collections ordered by title, annotated with products_count.
func (s *Store) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections c ORDER BY c.title ASC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	collections := []domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

// GetCollection retrieves a collection by ID.
func (s *Store) GetCollection(ctx context.Context, id int64) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = ?`, id)
	c, err := scanCollection(row)
	if err != nil {
		return nil, notFound(err, "collection %d", id)
	}
	return c, nil
}

// CreateCollection inserts a collection and sets its ID.
func (s *Store) CreateCollection(ctx context.Context, c *domain.Collection) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (title, featured_product_id) VALUES (?, ?)`,
		c.Title, nullableInt64(c.FeaturedProductID),
	)
	if err != nil {
		return mapWriteError(err, "insert collection")
	}
	c.ID, err = res.LastInsertId()
	return err
}

// UpdateCollection overwrites the title and featured product.
func (s *Store) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE collections SET title = ?, featured_product_id = ? WHERE id = ?`,
		c.Title, nullableInt64(c.FeaturedProductID), c.ID,
	)
	if err != nil {
		return mapWriteError(err, "update collection")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %d: %w", c.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteCollection deletes a collection that holds no products.
func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("delete collection %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %d: %w", id, store.ErrNotFound)
	}
	return nil
}
