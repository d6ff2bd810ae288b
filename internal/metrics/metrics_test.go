package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}

func TestTagOperation_CountsByResult(t *testing.T) {
	m := New()

	m.TagOperation("attach", nil)
	m.TagOperation("attach", nil)
	m.TagOperation("attach", errors.New("database is locked"))

	body := scrape(t, m)
	assert.Contains(t, body, `storefront_tag_operations_total{op="attach",result="ok"} 2`)
	assert.Contains(t, body, `storefront_tag_operations_total{op="attach",result="error"} 1`)
}

func TestTagCount(t *testing.T) {
	m := New()

	m.SetTagCount(5)
	m.AddTagCount(1)
	m.AddTagCount(-2)

	assert.Contains(t, scrape(t, m), "storefront_tags 4")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.TagOperation("get_tags_for", nil)
		m.SetTagCount(3)
		m.ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/v1/tags", http.StatusOK, 20*time.Millisecond)
	m.TagOperation("get_entities_for", nil)

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `storefront_http_requests_total{method="GET",route="/api/v1/tags",status="200"} 1`), body)
	assert.Contains(t, body, "storefront_http_request_duration_seconds_bucket")
	assert.Contains(t, body, `storefront_tag_operations_total{op="get_entities_for",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
