package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/normalize"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/validation"
)

// CatalogService manages products, collections, customers and promotions.
//
// Deleting an entity also clears its tags. The row delete is authoritative:
// if clearing tags fails the delete still succeeds and the failure is logged.
type CatalogService struct {
	store    store.Catalog
	tags     *TagService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog store.Catalog, tags *TagService, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:    catalog,
		tags:     tags,
		validate: validation.New(),
		logger:   logger,
	}
}

// ProductView is a product as the API presents it.
type ProductView struct {
	domain.Product
	PriceWithTax domain.Money `json:"price_with_tax"`
	Tags         []domain.Tag `json:"tags,omitempty"`
}

func newProductView(p domain.Product) ProductView {
	return ProductView{Product: p, PriceWithTax: p.PriceWithTax()}
}

// CreateProductRequest holds the fields of a new product.
type CreateProductRequest struct {
	Title        string       `json:"title" validate:"notblank,maxrunes=255"`
	Slug         string       `json:"slug" validate:"omitempty,max=255"`
	Description  string       `json:"description"`
	UnitPrice    domain.Money `json:"unit_price" validate:"gte=100"`
	Inventory    int          `json:"inventory" validate:"gte=0"`
	CollectionID int64        `json:"collection" validate:"required,gt=0"`
}

// UpdateProductRequest changes the given fields only.
type UpdateProductRequest struct {
	Title        *string       `json:"title" validate:"omitempty,notblank,maxrunes=255"`
	Slug         *string       `json:"slug" validate:"omitempty,notblank,max=255"`
	Description  *string       `json:"description"`
	UnitPrice    *domain.Money `json:"unit_price" validate:"omitempty,gte=100"`
	Inventory    *int          `json:"inventory" validate:"omitempty,gte=0"`
	CollectionID *int64        `json:"collection" validate:"omitempty,gt=0"`
}

// ListProducts returns the products matching filter. With withTags, each
// product carries its tags.
func (s *CatalogService) ListProducts(ctx context.Context, filter store.ProductFilter, withTags bool) ([]ProductView, error) {
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = newProductView(p)
		if withTags {
			if views[i].Tags, err = s.tags.GetTagsFor(ctx, contenttype.ModelProduct, p.ID); err != nil {
				return nil, err
			}
		}
	}
	return views, nil
}

// GetProduct returns a product with its tags.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductView, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	view := newProductView(*p)
	if view.Tags, err = s.tags.GetTagsFor(ctx, contenttype.ModelProduct, id); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateProduct validates and inserts a product. An empty slug is derived
// from the title.
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductView, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	p := &domain.Product{
		Title:        normalize.CleanLabel(req.Title),
		Slug:         req.Slug,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		Inventory:    req.Inventory,
		CollectionID: req.CollectionID,
	}
	if p.Slug == "" {
		p.Slug = normalize.Slugify(p.Title)
	}
	if p.Slug == "" {
		return nil, domainerrors.Validation("title must contain at least one letter or digit")
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("product created", "product_id", p.ID, "slug", p.Slug, "collection_id", p.CollectionID)
	view := newProductView(*p)
	return &view, nil
}

// UpdateProduct applies the non-nil fields of req.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*ProductView, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	if req.Title != nil {
		p.Title = normalize.CleanLabel(*req.Title)
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.UnitPrice != nil {
		p.UnitPrice = *req.UnitPrice
	}
	if req.Inventory != nil {
		p.Inventory = *req.Inventory
	}
	if req.CollectionID != nil {
		p.CollectionID = *req.CollectionID
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, storeError(err)
	}

	view := newProductView(*p)
	if view.Tags, err = s.tags.GetTagsFor(ctx, contenttype.ModelProduct, id); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteProduct deletes a product that no order references, then clears its tags.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return storeError(err)
	}
	s.logger.Info("product deleted", "product_id", id)
	s.clearTags(ctx, contenttype.ModelProduct, id)
	return nil
}

// CollectionView is a collection with its tags.
type CollectionView struct {
	domain.Collection
	Tags []domain.Tag `json:"tags,omitempty"`
}

// CreateCollectionRequest holds the fields of a new collection.
type CreateCollectionRequest struct {
	Title string `json:"title" validate:"notblank,maxrunes=255"`
}

// UpdateCollectionRequest changes the given fields only. A FeaturedProductID
// of 0 clears the featured product.
type UpdateCollectionRequest struct {
	Title             *string `json:"title" validate:"omitempty,notblank,maxrunes=255"`
	FeaturedProductID *int64  `json:"featured_product" validate:"omitempty,gte=0"`
}

// ListCollections returns every collection with its product count.
func (s *CatalogService) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	collections, err := s.store.ListCollections(ctx)
	return collections, storeError(err)
}

// GetCollection returns one collection with its tags.
func (s *CatalogService) GetCollection(ctx context.Context, id int64) (*CollectionView, error) {
	c, err := s.store.GetCollection(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	view := &CollectionView{Collection: *c}
	if view.Tags, err = s.tags.GetTagsFor(ctx, contenttype.ModelCollection, id); err != nil {
		return nil, err
	}
	return view, nil
}

// CreateCollection inserts a collection.
func (s *CatalogService) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*domain.Collection, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	c := &domain.Collection{Title: normalize.CleanLabel(req.Title)}
	if err := s.store.CreateCollection(ctx, c); err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("collection created", "collection_id", c.ID, "title", c.Title)
	return c, nil
}

// UpdateCollection applies the non-nil fields of req.
func (s *CatalogService) UpdateCollection(ctx context.Context, id int64, req UpdateCollectionRequest) (*domain.Collection, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	c, err := s.store.GetCollection(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if req.Title != nil {
		c.Title = normalize.CleanLabel(*req.Title)
	}
	if req.FeaturedProductID != nil {
		if *req.FeaturedProductID == 0 {
			c.FeaturedProductID = nil
		} else {
			featured := *req.FeaturedProductID
			c.FeaturedProductID = &featured
		}
	}

	if err := s.store.UpdateCollection(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// DeleteCollection deletes an empty collection, then clears its tags.
func (s *CatalogService) DeleteCollection(ctx context.Context, id int64) error {
	if err := s.store.DeleteCollection(ctx, id); err != nil {
		return storeError(err)
	}
	s.logger.Info("collection deleted", "collection_id", id)
	s.clearTags(ctx, contenttype.ModelCollection, id)
	return nil
}

// CreateCustomerRequest holds the fields of a new customer.
type CreateCustomerRequest struct {
	FirstName  string `json:"first_name" validate:"notblank,maxrunes=255"`
	LastName   string `json:"last_name" validate:"notblank,maxrunes=255"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=255"`
	BirthDate  string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Membership string `json:"membership" validate:"omitempty,oneof=B S G"`
}

// ListCustomers returns customers ordered by name.
func (s *CatalogService) ListCustomers(ctx context.Context, page store.Page) ([]domain.Customer, error) {
	customers, err := s.store.ListCustomers(ctx, page)
	return customers, storeError(err)
}

// GetCustomer returns one customer.
func (s *CatalogService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	return c, storeError(err)
}

// CreateCustomer inserts a customer. The email must be unique; membership
// defaults to bronze.
func (s *CatalogService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*domain.Customer, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	c := &domain.Customer{
		FirstName:  normalize.CleanLabel(req.FirstName),
		LastName:   normalize.CleanLabel(req.LastName),
		Email:      req.Email,
		Phone:      req.Phone,
		Membership: req.Membership,
	}
	if c.Membership == "" {
		c.Membership = domain.MembershipBronze
	}
	if req.BirthDate != "" {
		bd, err := parseDate(req.BirthDate)
		if err != nil {
			return nil, domainerrors.Validationf("birth_date: %v", err)
		}
		c.BirthDate = &bd
	}

	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("customer created", "customer_id", c.ID, "membership", c.Membership)
	return c, nil
}

// DeleteCustomer deletes a customer without orders, then clears their tags.
func (s *CatalogService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return storeError(err)
	}
	s.logger.Info("customer deleted", "customer_id", id)
	s.clearTags(ctx, contenttype.ModelCustomer, id)
	return nil
}

// CreatePromotionRequest holds the fields of a new promotion.
type CreatePromotionRequest struct {
	Description string  `json:"description" validate:"notblank,maxrunes=255"`
	Discount    float64 `json:"discount" validate:"gte=0"`
}

// ListPromotions returns every promotion.
func (s *CatalogService) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	promotions, err := s.store.ListPromotions(ctx)
	return promotions, storeError(err)
}

// CreatePromotion inserts a promotion.
func (s *CatalogService) CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*domain.Promotion, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	p := &domain.Promotion{Description: req.Description, Discount: req.Discount}
	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return nil, storeError(err)
	}
	return p, nil
}

// AddProductPromotion links a promotion to a product. Linking twice is a no-op.
func (s *CatalogService) AddProductPromotion(ctx context.Context, productID, promotionID int64) error {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return storeError(err)
	}
	err := s.store.AddProductPromotion(ctx, productID, promotionID)
	if errors.Is(err, store.ErrConflict) {
		// The product exists, so the promotion is the missing side.
		return domainerrors.NotFoundf("promotion %d not found", promotionID)
	}
	return storeError(err)
}

// ListProductPromotions returns the promotions of one product.
func (s *CatalogService) ListProductPromotions(ctx context.Context, productID int64) ([]domain.Promotion, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, storeError(err)
	}
	promotions, err := s.store.ListProductPromotions(ctx, productID)
	return promotions, storeError(err)
}

// clearTags detaches every tag from a deleted entity. Failures are logged only.
func (s *CatalogService) clearTags(ctx context.Context, model string, id int64) {
	if _, err := s.tags.DetachAll(ctx, model, id); err != nil {
		s.logger.Warn("failed to clear tags of deleted entity",
			"content_type", model,
			"object_id", id,
			"error", err,
		)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
