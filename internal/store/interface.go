// Package store defines the persistence boundary of the storefront server.
package store

import (
	"context"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

// ContentTypeStore persists the content-type registry.
type ContentTypeStore interface {
	// EnsureContentType returns the row for (appLabel, model), creating it if needed.
	// The ID is stable across restarts.
	EnsureContentType(ctx context.Context, appLabel, model string) (domain.ContentType, error)
	ListContentTypes(ctx context.Context) ([]domain.ContentType, error)
}

// TagIndex stores tags and their associations with entities of any content type.
//
// Range methods take offset and limit; a negative limit means no limit.
// Results are never nil.
type TagIndex interface {
	ContentTypeStore

	// Tags
	FindOrCreateTag(ctx context.Context, label, key string) (*domain.Tag, bool, error)
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagByKey(ctx context.Context, key string) (*domain.Tag, error)
	ListTagUsage(ctx context.Context) ([]domain.TagUsage, error)
	CountTags(ctx context.Context) (int, error)
	// DeleteTag removes the tag and every tagged item pointing at it, returning
	// how many items were removed.
	DeleteTag(ctx context.Context, id int64) (int, error)

	// Tagged items
	// AddTaggedItem inserts the association if absent and reports whether it was created.
	AddTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error)
	RemoveTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error)
	TagsFor(ctx context.Context, ref domain.Ref, offset, limit int) ([]domain.Tag, error)
	CountTagsFor(ctx context.Context, ref domain.Ref) (int, error)
	ObjectIDsFor(ctx context.Context, contentTypeID, tagID int64, offset, limit int) ([]int64, error)
	CountObjectIDsFor(ctx context.Context, contentTypeID, tagID int64) (int, error)
	RemoveTaggedItemsFor(ctx context.Context, ref domain.Ref) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Catalog persists products, collections, customers and promotions.
type Catalog interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	// DeleteProduct fails with ErrConflict while order items reference the product.
	DeleteProduct(ctx context.Context, id int64) error

	ListCollections(ctx context.Context) ([]domain.Collection, error)
	GetCollection(ctx context.Context, id int64) (*domain.Collection, error)
	CreateCollection(ctx context.Context, c *domain.Collection) error
	UpdateCollection(ctx context.Context, c *domain.Collection) error
	// DeleteCollection fails with ErrConflict while products belong to it.
	DeleteCollection(ctx context.Context, id int64) error

	ListCustomers(ctx context.Context, page Page) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	// DeleteCustomer fails with ErrConflict while the customer has orders.
	DeleteCustomer(ctx context.Context, id int64) error

	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	CreatePromotion(ctx context.Context, p *domain.Promotion) error
	AddProductPromotion(ctx context.Context, productID, promotionID int64) error
	ListProductPromotions(ctx context.Context, productID int64) ([]domain.Promotion, error)
}

// Carts persists anonymous shopping carts.
type Carts interface {
	CreateCart(ctx context.Context, c *domain.Cart) error
	// GetCart returns the cart with its items and their products.
	GetCart(ctx context.Context, id string) (*domain.Cart, error)
	// AddCartItem adds quantity of a product, increasing an existing line.
	AddCartItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.CartItem, error)
	UpdateCartItem(ctx context.Context, cartID string, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, cartID string, itemID int64) error
	DeleteCart(ctx context.Context, id string) error
}

// Orders persists orders and their items.
type Orders interface {
	// PlaceOrder inserts o and one item per line in a single transaction,
	// snapshotting unit prices and decrementing inventory. Insufficient
	// inventory fails with ErrConflict and nothing is written.
	PlaceOrder(ctx context.Context, o *domain.Order, lines []domain.LineRequest) error
	// PlaceOrderFromCart is PlaceOrder over the cart's items; the cart is
	// deleted in the same transaction.
	PlaceOrderFromCart(ctx context.Context, o *domain.Order, cartID string) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) error
}

// Reports runs aggregate queries over the catalog and orders.
type Reports interface {
	ProductPriceStats(ctx context.Context, collectionID *int64) (domain.PriceStats, error)
	UnitsSold(ctx context.Context, productID int64) (int, error)
	CustomerOrderCounts(ctx context.Context, minOrders int) ([]domain.CustomerOrderCount, error)
	CustomerSpending(ctx context.Context) ([]domain.CustomerSpending, error)
	TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error)
	OrderedProducts(ctx context.Context) ([]domain.Product, error)
}
