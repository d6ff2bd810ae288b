package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/logger"
)

// EnvWatcherHandle wraps the .env file watcher with Shutdownable.
// Watcher is nil when the file could not be watched.
type EnvWatcherHandle struct {
	Watcher *config.EnvWatcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EnvWatcherHandle) Shutdown() error {
	h.cancel()
	if h.Watcher == nil {
		return nil
	}
	return h.Watcher.Close()
}

// ProvideEnvWatcher watches the .env file and applies LOG_LEVEL changes
// without a restart. Other keys need a restart to take effect.
func ProvideEnvWatcher(i do.Injector) (*EnvWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	handle := &EnvWatcherHandle{cancel: cancel}

	watcher, err := config.WatchEnvFile(ctx, cfg.EnvFile, log.Logger, func(values map[string]string) {
		level, ok := values["LOG_LEVEL"]
		if !ok {
			return
		}
		newLevel := logger.ParseLevel(level)
		if newLevel != log.Level() {
			log.SetLevel(newLevel)
			log.Info("Log level changed", "level", newLevel.String())
		}
	})
	if err != nil {
		// Missing .env files are fine; there is nothing to reload.
		log.Debug("Not watching env file", "path", cfg.EnvFile, "error", err)
		return handle, nil
	}

	handle.Watcher = watcher
	return handle, nil
}
