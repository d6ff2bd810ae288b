package providers

import (
	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	index := do.MustInvoke[*tagging.Index](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	return service.NewTagService(index, searchHandle.SearchIndex, log.Logger), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)

	return service.NewCatalogService(storeHandle.Store, tagService, log.Logger), nil
}

// ProvideCartService provides the cart service.
func ProvideCartService(i do.Injector) (*service.CartService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewCartService(storeHandle.Store, log.Logger), nil
}

// ProvideOrderService provides the order service.
func ProvideOrderService(i do.Injector) (*service.OrderService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewOrderService(storeHandle.Store, log.Logger), nil
}

// ProvideReportService provides the report service.
func ProvideReportService(i do.Injector) (*service.ReportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewReportService(storeHandle.Store), nil
}
