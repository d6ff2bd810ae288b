package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// ProvideMetrics provides the Prometheus collectors. They are always
// recorded; config only decides whether /metrics is served.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideRegistry provides the content type registry with every storefront
// model registered on the tag backend.
func ProvideRegistry(i do.Injector) (*contenttype.Registry, error) {
	log := do.MustInvoke[*logger.Logger](i)
	backend := do.MustInvoke[*TagBackendHandle](i)

	registry := contenttype.NewRegistry(backend.TagIndex, log.Logger)
	if err := registry.RegisterDefaults(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Content types registered", "count", len(registry.All()))
	return registry, nil
}

// ProvideTagIndex provides the tag association index.
func ProvideTagIndex(i do.Injector) (*tagging.Index, error) {
	log := do.MustInvoke[*logger.Logger](i)
	backend := do.MustInvoke[*TagBackendHandle](i)
	registry := do.MustInvoke[*contenttype.Registry](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	index := tagging.NewIndex(backend.TagIndex, registry, m, log.WithField("component", "tagging").Logger)
	if err := index.SyncMetrics(context.Background()); err != nil {
		log.Warn("Failed to sync tag metrics", "error", err)
	}
	return index, nil
}
