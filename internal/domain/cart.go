package domain

import "time"

// Cart is an anonymous shopping cart keyed by UUID.
type Cart struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartItem `json:"items"`
}

// Total sums the cart at current product prices.
func (c *Cart) Total() Money {
	var total Money
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// CartItem is one product in a cart. (CartID, ProductID) is unique.
type CartItem struct {
	ID        int64    `json:"id"`
	CartID    string   `json:"cart_id"`
	ProductID int64    `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity"`
}

// LineTotal prices the item at the product's current unit price.
func (i CartItem) LineTotal() Money {
	if i.Product == nil {
		return 0
	}
	return i.Product.UnitPrice.Times(i.Quantity)
}
