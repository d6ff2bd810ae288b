package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/search"
	"github.com/storefrontapp/storefront-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve tag label index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.Path,
		Logger:   log.WithField("component", "search").Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded reindexes tags in the background when the
// index is empty but tags exist. Call it after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	tagService := do.MustInvoke[*service.TagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		if err := tagService.EnsureSearchIndex(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		}
	}()
}
