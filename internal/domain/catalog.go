package domain

import "time"

// Collection groups products. Default ordering is by title.
type Collection struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product,omitempty"`
	ProductsCount     int    `json:"products_count"`
}

// Product is a catalog item. Default ordering is by title.
type Product struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	UnitPrice    Money     `json:"unit_price"`
	Inventory    int       `json:"inventory"`
	LastUpdate   time.Time `json:"last_update"`
	CollectionID int64     `json:"collection"`
}

// PriceWithTax returns the unit price including tax.
func (p *Product) PriceWithTax() Money {
	return p.UnitPrice.WithTax()
}

// Promotion is a discount that can apply to many products.
type Promotion struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

// Membership tiers.
const (
	MembershipBronze = "B"
	MembershipSilver = "S"
	MembershipGold   = "G"
)

// ValidMembership reports whether m is a known tier.
func ValidMembership(m string) bool {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return true
	}
	return false
}

// Customer places orders. Default ordering is first name, then last name.
type Customer struct {
	ID         int64      `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Membership string     `json:"membership"`
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
