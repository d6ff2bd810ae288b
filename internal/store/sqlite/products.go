package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// productColumns must match the scan order in scanProduct.
const productColumns = `p.id, p.title, p.slug, p.description, p.unit_price, p.inventory, p.last_update, p.collection_id`

func scanProduct(scanner interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	var (
		p           domain.Product
		description sql.NullString
		lastUpdate  string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&description,
		&p.UnitPrice,
		&p.Inventory,
		&lastUpdate,
		&p.CollectionID,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.LastUpdate, err = parseTime(lastUpdate)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products matching the filter.
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	terms, err := store.ParseOrdering(filter.OrderBy)
	if err != nil {
		return nil, err
	}
	filter.Page.Validate()

	var (
		where []string
		args  []any
	)
	if filter.CollectionID != nil {
		where = append(where, "p.collection_id = ?")
		args = append(args, *filter.CollectionID)
	}
	if filter.TitleContains != "" {
		// SQLite LIKE is case-insensitive for ASCII.
		where = append(where, `p.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.TitleContains)+"%")
	}
	if filter.MinPrice != nil {
		where = append(where, "p.unit_price >= ?")
		args = append(args, int64(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.unit_price <= ?")
		args = append(args, int64(*filter.MaxPrice))
	}
	if filter.InventoryBelow != nil {
		where = append(where, "p.inventory < ?")
		args = append(args, *filter.InventoryBelow)
	}

	var q strings.Builder
	q.WriteString(`SELECT ` + productColumns + ` FROM products p`)
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY ")
	for i, term := range terms {
		if i > 0 {
			q.WriteString(", ")
		}
		// Column names come from the ParseOrdering whitelist.
		q.WriteString("p." + term.Column)
		if term.Desc {
			q.WriteString(" DESC")
		}
	}
	q.WriteString(", p.id ASC LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
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

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return p, nil
}

// CreateProduct inserts a product and sets its ID and LastUpdate.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.LastUpdate = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (title, slug, description, unit_price, inventory, last_update, collection_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title,
		p.Slug,
		nullString(p.Description),
		int64(p.UnitPrice),
		p.Inventory,
		formatTime(p.LastUpdate),
		p.CollectionID,
	)
	if err != nil {
		return mapWriteError(err, "insert product")
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProduct overwrites a product's fields and bumps LastUpdate.
func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.LastUpdate = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			title = ?, slug = ?, description = ?, unit_price = ?,
			inventory = ?, last_update = ?, collection_id = ?
		WHERE id = ?`,
		p.Title,
		p.Slug,
		nullString(p.Description),
		int64(p.UnitPrice),
		p.Inventory,
		formatTime(p.LastUpdate),
		p.CollectionID,
		p.ID,
	)
	if err != nil {
		return mapWriteError(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteProduct deletes a product. Order items protect it; featured
// references are nulled and cart lines and promotion links cascade.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("delete product %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
