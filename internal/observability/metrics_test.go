package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/admin/roles/{roleID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/roles/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/roles/8", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/admin/roles/{roleID}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(m.inflight))

	body := scrape(t, m)
	assert.Contains(t, body, `storefront_http_request_duration_seconds_bucket{route="/admin/roles/{roleID}"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestDecisionAndCacheCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordDecision("Catalog.ManageProducts", true)
	m.RecordDecision("Catalog.ManageProducts", false)
	m.RecordDecision("Configuration.ManageAcl", false)
	m.CacheHit("acl:role:1:capabilities")
	m.CacheMiss("acl:role:1:capabilities")
	m.CacheMiss("acl:role:2:capabilities")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("granted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aclCache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.aclCache.WithLabelValues("miss")))
	assert.NotContains(t, scrape(t, m), "Catalog.ManageProducts")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordDecision("x", true)
	m.CacheHit("x")
	m.CacheMiss("x")

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
