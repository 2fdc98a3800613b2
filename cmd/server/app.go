package main

import (
	"log"
	"net/http"
	"time"

	"github.com/diewo77/freelance-pro/auth"
	gate "github.com/diewo77/freelance-pro/go-gate"
	"github.com/diewo77/freelance-pro/httpx"
	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/handlers"
	"github.com/diewo77/freelance-pro/internal/metrics"
	"github.com/diewo77/freelance-pro/internal/middleware"
	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/diewo77/freelance-pro/internal/policy"
	"github.com/diewo77/freelance-pro/internal/services"
	"github.com/diewo77/freelance-pro/validation"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	cfg     *config.Config
	stores  *services.Stores
	gate    *gate.Gate[string]
	metrics *metrics.Recorder
}

// NewApp creates a new application with all routes configured. rec may be
// nil when metrics are disabled.
func NewApp(cfg *config.Config, stores *services.Stores, rec *metrics.Recorder) *App {
	app := &App{
		mux:     http.NewServeMux(),
		cfg:     cfg,
		stores:  stores,
		gate:    policy.NewGate(cfg.App.AdminUserIDs),
		metrics: rec,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// session user + language preference
	handler := auth.Middleware(a.cfg.App.DefaultUserID)(middleware.Prefs(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /healthz", a.healthz)

	resources(a.mux, "clients", handlers.NewResource("client", a.stores.Clients, a.gate))
	resources(a.mux, "contracts", handlers.NewResource("contract", a.stores.Contracts, a.gate))
	resources(a.mux, "invoices", handlers.NewResource("invoice", a.stores.Invoices, a.gate))
	resources(a.mux, "projects", handlers.NewResource("project", a.stores.Projects, a.gate).
		WithCheck(a.checkCategory))

	dh := handlers.NewDashboardHandler(a.stores, a.gate)
	a.mux.HandleFunc("GET /dashboard", dh.Summary)
	a.mux.HandleFunc("GET /invoices/{id}/totals", dh.Totals)
	a.mux.HandleFunc("GET /categories", dh.Categories)

	eh := handlers.NewEventsHandler(map[string]handlers.Notifier{
		"clients":   a.stores.Clients,
		"contracts": a.stores.Contracts,
		"invoices":  a.stores.Invoices,
		"projects":  a.stores.Projects,
	}, 25*time.Second)
	a.mux.HandleFunc("GET /events", eh.Stream)

	if a.cfg.Metrics.Enabled {
		a.mux.Handle("GET "+a.cfg.Metrics.Path, a.metrics.Handler())
	}
}

// resources registers the CRUD routes of one domain under /plural.
func resources[T any, P interface {
	*T
	cache.Record
	handlers.Labeled
}](mux *http.ServeMux, plural string, h *handlers.Resource[T, P]) {
	base := "/" + plural
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("POST "+base+"/reset", h.Reset)
	mux.HandleFunc("GET "+base+"/{id}", h.View)
	mux.HandleFunc("POST "+base+"/{id}", h.Update)
	mux.HandleFunc("POST "+base+"/{id}/delete", h.Delete)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": string(a.stores.Clients.Driver()),
	})
}

// checkCategory rejects projects referencing a category outside the catalog.
func (a *App) checkCategory(p models.Project) validation.Violations {
	v := make(validation.Violations)
	if p.Category == "" {
		return v
	}
	if _, ok := a.stores.Categories.Find(p.Category); !ok {
		v["category"] = "unknown_category"
	}
	return v
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
