package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/store"
)

type seedProduct struct {
	title     string
	price     float64
	inventory int
	tags      []string
}

var seedCatalog = []struct {
	collection string
	products   []seedProduct
}{
	{"Bakery", []seedProduct{
		{"Sourdough Loaf", 6.50, 40, []string{"Fresh", "Vegan"}},
		{"Croissant", 2.75, 120, []string{"Fresh"}},
		{"Creme Brulee", 4.20, 25, []string{"Dessert", "Sale"}},
	}},
	{"Pantry", []seedProduct{
		{"Olive Oil", 12.00, 60, []string{"Vegan", "Imported"}},
		{"Fair Trade Coffee", 9.99, 80, []string{"Vegan", "Sale"}},
		{"Wildflower Honey", 7.25, 8, []string{"Local"}},
	}},
}

var seedCustomers = []struct {
	req  service.CreateCustomerRequest
	tags []string
}{
	{service.CreateCustomerRequest{FirstName: "Ada", LastName: "Byrne", Email: "ada@example.com", Membership: domain.MembershipGold}, []string{"VIP"}},
	{service.CreateCustomerRequest{FirstName: "Tomas", LastName: "Reyes", Email: "tomas@example.com"}, nil},
}

// seedResult counts what one seed run created.
type seedResult struct {
	Collections int
	Products    int
	Customers   int
	Tags        int
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo collections, products and tags",
		Long:  "Create demo collections, products and tags. Safe to run repeatedly: existing rows are reused.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := seed(cmd.Context(), a.catalog, a.tags)
			if err != nil {
				return err
			}
			cmd.Printf("Seeded %d collections, %d products, %d customers, %d tag associations\n",
				res.Collections, res.Products, res.Customers, res.Tags)
			return nil
		}),
	}
}

// seed creates the demo catalog, reusing collections and products that
// already exist by title and customers that already exist by email.
func seed(ctx context.Context, catalog *service.CatalogService, tags *service.TagService) (seedResult, error) {
	var res seedResult

	existing, err := catalog.ListCollections(ctx)
	if err != nil {
		return res, err
	}
	byTitle := make(map[string]int64, len(existing))
	for _, c := range existing {
		byTitle[c.Title] = c.ID
	}

	for _, group := range seedCatalog {
		collectionID, ok := byTitle[group.collection]
		if !ok {
			c, err := catalog.CreateCollection(ctx, service.CreateCollectionRequest{Title: group.collection})
			if err != nil {
				return res, fmt.Errorf("create collection %q: %w", group.collection, err)
			}
			collectionID = c.ID
			res.Collections++
		}

		for _, sp := range group.products {
			productID, created, err := ensureProduct(ctx, catalog, collectionID, sp)
			if err != nil {
				return res, err
			}
			if created {
				res.Products++
			}
			for _, label := range sp.tags {
				if _, created, err := tags.Attach(ctx, contenttype.ModelProduct, productID, label); err != nil {
					return res, fmt.Errorf("tag %q with %q: %w", sp.title, label, err)
				} else if created {
					res.Tags++
				}
			}
		}
	}

	if err := seedCustomerRows(ctx, catalog, tags, &res); err != nil {
		return res, err
	}
	return res, nil
}

func seedCustomerRows(ctx context.Context, catalog *service.CatalogService, tags *service.TagService, res *seedResult) error {
	existing, err := catalog.ListCustomers(ctx, store.Page{Limit: 1000})
	if err != nil {
		return err
	}
	byEmail := make(map[string]int64, len(existing))
	for _, c := range existing {
		byEmail[c.Email] = c.ID
	}

	for _, sc := range seedCustomers {
		customerID, ok := byEmail[sc.req.Email]
		if !ok {
			c, err := catalog.CreateCustomer(ctx, sc.req)
			if err != nil {
				return fmt.Errorf("create customer %q: %w", sc.req.Email, err)
			}
			customerID = c.ID
			res.Customers++
		}
		for _, label := range sc.tags {
			_, created, err := tags.Attach(ctx, contenttype.ModelCustomer, customerID, label)
			if err != nil {
				return fmt.Errorf("tag customer %q with %q: %w", sc.req.Email, label, err)
			}
			if created {
				res.Tags++
			}
		}
	}
	return nil
}

func ensureProduct(ctx context.Context, catalog *service.CatalogService, collectionID int64, sp seedProduct) (int64, bool, error) {
	matches, err := catalog.ListProducts(ctx, store.ProductFilter{
		CollectionID:  &collectionID,
		TitleContains: sp.title,
	}, false)
	if err != nil {
		return 0, false, err
	}
	for _, p := range matches {
		if p.Title == sp.title {
			return p.ID, false, nil
		}
	}

	p, err := catalog.CreateProduct(ctx, service.CreateProductRequest{
		Title:        sp.title,
		UnitPrice:    domain.MoneyFromFloat(sp.price),
		Inventory:    sp.inventory,
		CollectionID: collectionID,
	})
	if err != nil {
		return 0, false, fmt.Errorf("create product %q: %w", sp.title, err)
	}
	return p.ID, true, nil
}
