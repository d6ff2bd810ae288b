package sqlite

import (
	"context"
	"fmt"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

// ListPromotions returns all promotions by ID.
func (s *Store) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.queryPromotions(ctx, `SELECT id, description, discount FROM promotions ORDER BY id`)
}

// CreatePromotion inserts a promotion and sets its ID.
func (s *Store) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO promotions (description, discount) VALUES (?, ?)`,
		p.Description, p.Discount,
	)
	if err != nil {
		return mapWriteError(err, "insert promotion")
	}
	p.ID, err = res.LastInsertId()
	return err
}

// AddProductPromotion links a promotion to a product. Linking twice is a no-op.
// Unknown IDs are store.ErrConflict.
func (s *Store) AddProductPromotion(ctx context.Context, productID, promotionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO product_promotions (product_id, promotion_id) VALUES (?, ?)`,
		productID, promotionID,
	)
	return mapWriteError(err, "insert product promotion")
}

// ListProductPromotions returns the promotions applying to a product.
func (s *Store) ListProductPromotions(ctx context.Context, productID int64) ([]domain.Promotion, error) {
	return s.queryPromotions(ctx, `
		SELECT pr.id, pr.description, pr.discount
		FROM product_promotions pp
		JOIN promotions pr ON pr.id = pp.promotion_id
		WHERE pp.product_id = ?
		ORDER BY pr.id`, productID)
}

func (s *Store) queryPromotions(ctx context.Context, query string, args ...any) ([]domain.Promotion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	promotions := []domain.Promotion{}
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(&p.ID, &p.Description, &p.Discount); err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}
