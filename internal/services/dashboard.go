package services

import (
	"context"

	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/shopspring/decimal"
)

// Dashboard is the per-user overview shown on the landing page.
type Dashboard struct {
	Clients             int     `json:"clients"`
	Projects            int     `json:"projects"`
	ActiveProjects      int     `json:"active_projects"`
	Contracts           int     `json:"contracts"`
	ActiveContracts     int     `json:"active_contracts"`
	ActiveContractValue float64 `json:"active_contract_value"`
	Invoices            int     `json:"invoices"`
	OverdueInvoices     int     `json:"overdue_invoices"`
	Revenue             float64 `json:"revenue"`
	Outstanding         float64 `json:"outstanding"`
}

type DashboardService struct {
	stores   *Stores
	invoices *InvoiceService
}

func NewDashboardService(stores *Stores) *DashboardService {
	return &DashboardService{stores: stores, invoices: NewInvoiceService(stores.Invoices)}
}

func (s *DashboardService) Summary(ctx context.Context, userID string) Dashboard {
	var d Dashboard
	for _, c := range s.stores.Clients.List(ctx) {
		if c.UserID == userID {
			d.Clients++
		}
	}
	for _, p := range s.stores.Projects.List(ctx) {
		if p.UserID != userID {
			continue
		}
		d.Projects++
		if p.Status == models.ProjectStatusInProgress {
			d.ActiveProjects++
		}
	}
	value := decimal.Zero
	for _, c := range s.stores.Contracts.List(ctx) {
		if c.UserID != userID {
			continue
		}
		d.Contracts++
		if c.IsActive() {
			d.ActiveContracts++
			value = value.Add(decimal.NewFromFloat(c.Value))
		}
	}
	d.ActiveContractValue = value.InexactFloat64()
	for _, inv := range s.stores.Invoices.List(ctx) {
		if inv.UserID != userID {
			continue
		}
		d.Invoices++
		if inv.Status == models.InvoiceStatusOverdue {
			d.OverdueInvoices++
		}
	}
	d.Revenue = s.invoices.GetRevenue(ctx, userID)
	d.Outstanding = s.invoices.GetOutstanding(ctx, userID)
	return d
}
