package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/freelance-pro/auth"
	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/events"
	"github.com/diewo77/freelance-pro/internal/metrics"
	"github.com/diewo77/freelance-pro/internal/services"
	"github.com/diewo77/freelance-pro/internal/storage/memkv"
)

func newTestServer(t *testing.T, metricsOn bool) (http.Handler, *metrics.Recorder) {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{DefaultUserID: "user-1", AdminUserIDs: []string{"admin"}},
		Metrics: config.MetricsConfig{Enabled: metricsOn, Path: "/metrics"},
	}
	var rec *metrics.Recorder
	if metricsOn {
		rec = metrics.New()
	}
	stores := services.NewStores(memkv.New().Session(), cache.Options{Bus: events.NewBus(), Metrics: rec})
	return withRecover(NewApp(cfg, stores, rec)), rec
}

func serve(h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, c := range cookies {
		r.AddCookie(c)
	}
	h.ServeHTTP(rec, r)
	return rec
}

func sessionFor(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, userID)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, false)
	rec := serve(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["storage"])
}

func TestDomainRoutes(t *testing.T) {
	h, _ := newTestServer(t, false)
	for _, path := range []string{"/clients", "/contracts", "/invoices", "/projects", "/categories", "/dashboard"} {
		rec := serve(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	for _, path := range []string{"/clients/client-1", "/contracts/ct-001", "/invoices/inv-001", "/projects/project-1", "/invoices/inv-002/totals"} {
		rec := serve(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestResetRouteTakesPrecedenceOverUpdate(t *testing.T) {
	h, _ := newTestServer(t, false)
	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/contracts/ct-001/delete", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/contracts/ct-001", "").Code)

	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodPost, "/contracts/reset", "").Code)
	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/contracts/reset", "", sessionFor(t, "admin")).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/contracts/ct-001", "").Code)
}

func TestProjectCategoryRoute(t *testing.T) {
	h, _ := newTestServer(t, false)
	rec := serve(h, http.MethodPost, "/projects/project-1", `{"category":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(h, http.MethodPost, "/projects/project-1", `{"category":"branding"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/metrics", "").Code)

	h, _ = newTestServer(t, true)
	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/clients/client-1/delete", "").Code)
	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `freelance_store_operations_total{domain="clients",op="delete",outcome="ok"} 1`)
}

func TestWithRecover(t *testing.T) {
	h := withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}
