// Package di provides dependency injection configuration for the storefront server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/di/providers"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideEnvWatcher)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideTagBackend)

	// Tagging layer
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideTagIndex)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Business services
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideCartService)
	do.Provide(injector, providers.ProvideOrderService)
	do.Provide(injector, providers.ProvideReportService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.EnvWatcherHandle](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.TagBackendHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*contenttype.Registry](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*tagging.Index](injector)
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.CartService](injector)
	_ = do.MustInvoke[*service.OrderService](injector)
	_ = do.MustInvoke[*service.ReportService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
