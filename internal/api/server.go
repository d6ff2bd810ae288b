// Package api provides the HTTP API server and handlers for the storefront.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/http/response"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/ratelimit"
	"github.com/storefrontapp/storefront-server/internal/search"
	"github.com/storefrontapp/storefront-server/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the application services the handlers call.
type Services struct {
	Tags    *service.TagService
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	Reports *service.ReportService
}

// Deps holds what the server needs besides services. Search, Metrics and
// Limiter may be nil.
type Deps struct {
	Database   Pinger
	TagBackend Pinger
	Search     *search.SearchIndex
	Metrics    *metrics.Metrics
	Limiter    *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services Services
	deps     Deps
	cfg      config.ServerConfig
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services Services, deps Deps, cfg config.ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		deps:     deps,
		cfg:      cfg,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Storefront API", "1.0.0")
	humaConfig.Info.Description = "Catalog, cart and order API with a generic tag index."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if s.deps.Limiter != nil {
		s.router.Use(RateLimitMiddleware(s.deps.Limiter, s.logger))
	}
	s.router.Use(requestScope)
	if s.deps.Metrics != nil {
		s.router.Use(s.instrument)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.URL.Path, s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method+" not allowed on "+r.URL.Path, s.logger)
	})
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.CORSOrigins
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	s.registerTagRoutes()
	s.registerProductRoutes()
	s.registerCollectionRoutes()
	s.registerCustomerRoutes()
	s.registerPromotionRoutes()
	s.registerCartRoutes()
	s.registerOrderRoutes()
	s.registerReportRoutes()
}
