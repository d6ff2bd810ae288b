package domain

// PriceStats aggregates product unit prices.
type PriceStats struct {
	Count int   `json:"count"`
	Min   Money `json:"min_price"`
	Max   Money `json:"max_price"`
	Avg   Money `json:"avg_price"`
}

// CustomerOrderCount is a customer annotated with how many orders they placed.
type CustomerOrderCount struct {
	Customer
	OrdersCount int `json:"orders_count"`
}

// CustomerSpending is a customer annotated with lifetime spend and most recent order.
type CustomerSpending struct {
	Customer
	TotalSpent  Money  `json:"total_spent"`
	LastOrderID *int64 `json:"last_order_id,omitempty"`
}

// ProductSales is a product annotated with total units and revenue sold.
type ProductSales struct {
	Product
	UnitsSold  int   `json:"units_sold"`
	TotalSales Money `json:"total_sales"`
}
