package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// customerColumns must match the scan order in scanCustomer.
const customerColumns = `c.id, c.first_name, c.last_name, c.email, c.phone, c.birth_date, c.membership`

func scanCustomer(scanner interface{ Scan(dest ...any) error }) (*domain.Customer, error) {
	var (
		c         domain.Customer
		birthDate sql.NullString
	)
	err := scanner.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &birthDate, &c.Membership)
	if err != nil {
		return nil, err
	}
	c.BirthDate, err = parseNullableTime(birthDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns customers ordered by first name, then last name.
func (s *Store) ListCustomers(ctx context.Context, page store.Page) ([]domain.Customer, error) {
	page.Validate()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers c
		ORDER BY c.first_name ASC, c.last_name ASC, c.id ASC
		LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// GetCustomer retrieves a customer by ID.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = ?`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, notFound(err, "customer %d", id)
	}
	return c, nil
}

// CreateCustomer inserts a customer. A duplicate email is store.ErrAlreadyExists.
func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if c.Membership == "" {
		c.Membership = domain.MembershipBronze
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, birth_date, membership)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		nullTimeString(c.BirthDate),
		c.Membership,
	)
	if err != nil {
		return mapWriteError(err, "insert customer")
	}
	c.ID, err = res.LastInsertId()
	return err
}

// DeleteCustomer deletes a customer with no orders.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("delete customer %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return nil
}
