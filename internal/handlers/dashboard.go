package handlers

import (
	"net/http"

	"github.com/diewo77/freelance-pro/auth"
	gate "github.com/diewo77/freelance-pro/go-gate"
	"github.com/diewo77/freelance-pro/httpx"
	"github.com/diewo77/freelance-pro/i18n"
	"github.com/diewo77/freelance-pro/internal/middleware"
	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/diewo77/freelance-pro/internal/services"
)

// DashboardHandler serves aggregates computed over the merged collections.
type DashboardHandler struct {
	stores    *services.Stores
	dashboard *services.DashboardService
	invoices  *services.InvoiceService
	gate      *gate.Gate[string]
}

func NewDashboardHandler(stores *services.Stores, g *gate.Gate[string]) *DashboardHandler {
	return &DashboardHandler{
		stores:    stores,
		dashboard: services.NewDashboardService(stores),
		invoices:  services.NewInvoiceService(stores.Invoices),
		gate:      g,
	}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONErrorMessage(w, http.StatusUnauthorized, "unauthorized", i18n.T(middleware.LangFrom(r), "unauthorized"), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, h.dashboard.Summary(r.Context(), userID))
}

// Totals recomputes subtotal, tax and total of an invoice from its items.
func (h *DashboardHandler) Totals(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.stores.Invoices.Get(r.Context(), r.PathValue("id"))
	if !ok {
		httpx.JSONErrorMessage(w, http.StatusNotFound, "not_found", i18n.T(middleware.LangFrom(r), "not_found"), nil)
		return
	}
	if !authorize(w, r, h.gate, gate.ActionView, "invoice", &inv) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.invoices.ComputeTotals(&inv))
}

func (h *DashboardHandler) Categories(w http.ResponseWriter, r *http.Request) {
	items := h.stores.Categories.List()
	httpx.JSON(w, http.StatusOK, ListResponse[models.Category]{Items: items, Total: len(items)})
}
