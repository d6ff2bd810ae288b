package store

import (
	"fmt"
	"strings"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

// productOrderColumns whitelists the fields products can be ordered by.
var productOrderColumns = map[string]string{
	"title":      "title",
	"unit_price": "unit_price",
	"inventory":  "inventory",
	"id":         "id",
}

// ProductFilter narrows ListProducts. Zero values mean "no constraint".
type ProductFilter struct {
	CollectionID   *int64
	TitleContains  string
	MinPrice       *domain.Money
	MaxPrice       *domain.Money
	InventoryBelow *int
	OrderBy        string // e.g. "-unit_price,title"
	Page
}

// OrderTerm is one validated ordering column.
type OrderTerm struct {
	Column string
	Desc   bool
}

// ParseOrdering validates a comma-separated ordering such as "-unit_price,title".
// An empty string yields the default ordering by title.
func ParseOrdering(orderBy string) ([]OrderTerm, error) {
	if strings.TrimSpace(orderBy) == "" {
		return []OrderTerm{{Column: "title"}}, nil
	}

	var terms []OrderTerm
	for _, field := range strings.Split(orderBy, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")

		column, ok := productOrderColumns[field]
		if !ok {
			return nil, fmt.Errorf("unknown ordering field %q: %w", field, ErrInvalidInput)
		}
		terms = append(terms, OrderTerm{Column: column, Desc: desc})
	}
	return terms, nil
}
