package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/ratelimit"
	"github.com/storefrontapp/storefront-server/internal/search"
	"github.com/storefrontapp/storefront-server/internal/service"
	"github.com/storefrontapp/storefront-server/internal/store/sqlite"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api     humatest.TestAPI
	metrics *metrics.Metrics
}

type testOption func(*Deps)

func withLimiter(l *ratelimit.KeyedRateLimiter) testOption {
	return func(d *Deps) { d.Limiter = l }
}

func withoutSearch() testOption {
	return func(d *Deps) { d.Search = nil }
}

// setupTestServer wires the full stack over a temporary SQLite database and
// an in-memory search index.
func setupTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	searchIndex, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { searchIndex.Close() })

	registry := contenttype.NewRegistry(st, logger)
	require.NoError(t, registry.RegisterDefaults(context.Background()))

	m := metrics.New()
	deps := Deps{
		Database:   st,
		TagBackend: st,
		Search:     searchIndex,
		Metrics:    m,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	index := tagging.NewIndex(st, registry, m, logger)
	tags := service.NewTagService(index, deps.Search, logger)
	services := Services{
		Tags:    tags,
		Catalog: service.NewCatalogService(st, tags, logger),
		Carts:   service.NewCartService(st, logger),
		Orders:  service.NewOrderService(st, logger),
		Reports: service.NewReportService(st),
	}

	server := NewServer(services, deps, config.ServerConfig{}, logger)

	return &testServer{
		Server:  server,
		api:     humatest.Wrap(t, server.API()),
		metrics: m,
	}
}

// testEnvelope matches both envelope shapes for decoding.
type testEnvelope[T any] struct {
	Version int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

type idBody struct {
	ID int64 `json:"id"`
}

// seedProduct creates a collection and a product through the API.
func (ts *testServer) seedProduct(t *testing.T, title string, price float64, inventory int) int64 {
	t.Helper()

	resp := ts.api.Post("/api/v1/collections", map[string]any{"title": "Collection for " + title})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	collection := decodeEnvelope[idBody](t, resp).Data

	resp = ts.api.Post("/api/v1/products", map[string]any{
		"title":      title,
		"unit_price": price,
		"inventory":  inventory,
		"collection": collection.ID,
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeEnvelope[idBody](t, resp).Data.ID
}

func (ts *testServer) seedCustomer(t *testing.T, first, email string) int64 {
	t.Helper()

	resp := ts.api.Post("/api/v1/customers", map[string]any{
		"first_name": first,
		"last_name":  "Tester",
		"email":      email,
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeEnvelope[idBody](t, resp).Data.ID
}
