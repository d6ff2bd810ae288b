package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/storefrontapp/storefront-server/internal/api"
	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/logger"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/ratelimit"
	"github.com/storefrontapp/storefront-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if h.limiter != nil {
		h.limiter.Stop()
	}
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	backendHandle := do.MustInvoke[*TagBackendHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	services := api.Services{
		Tags:    do.MustInvoke[*service.TagService](i),
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Carts:   do.MustInvoke[*service.CartService](i),
		Orders:  do.MustInvoke[*service.OrderService](i),
		Reports: do.MustInvoke[*service.ReportService](i),
	}

	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	deps := api.Deps{
		Database:   storeHandle.Store,
		TagBackend: backendHandle.TagIndex,
		Search:     searchHandle.SearchIndex,
		Limiter:    limiter,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = do.MustInvoke[*metrics.Metrics](i)
	}

	handler := api.NewServer(services, deps, cfg.Server, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "metrics", cfg.Metrics.Enabled)

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}
