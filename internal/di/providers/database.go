package providers

import (
	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/store/kv"
	"github.com/storefrontapp/storefront-server/internal/store/sqlite"
)

// StoreHandle wraps the SQLite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite database holding the catalog, carts and orders.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// TagBackendHandle wraps the configured tag index backend. With the sqlite
// backend it shares the database and closing is left to StoreHandle.
type TagBackendHandle struct {
	store.TagIndex
	owned bool
}

// Shutdown implements do.Shutdownable.
func (h *TagBackendHandle) Shutdown() error {
	if !h.owned {
		return nil
	}
	return h.Close()
}

// ProvideTagBackend provides the tag index backend selected by TAG_BACKEND.
func ProvideTagBackend(i do.Injector) (*TagBackendHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Tagging.Backend == config.BackendBadger {
		kvStore, err := kv.Open(cfg.Data.BadgerPath(), log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Tag index initialized", "backend", config.BackendBadger, "path", cfg.Data.BadgerPath())
		return &TagBackendHandle{TagIndex: kvStore, owned: true}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	log.Info("Tag index initialized", "backend", config.BackendSQLite)
	return &TagBackendHandle{TagIndex: storeHandle.Store}, nil
}
