package services

import (
	"context"

	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/shopspring/decimal"
)

type InvoiceService struct {
	invoices *InvoiceStore
}

func NewInvoiceService(invoices *InvoiceStore) *InvoiceService {
	return &InvoiceService{invoices: invoices}
}

// ComputeTotals calculates subtotal, tax and total for an invoice from its items.
func (s *InvoiceService) ComputeTotals(inv *models.Invoice) models.Totals {
	if inv == nil {
		return models.Totals{}
	}
	return models.CalculateTotals(inv.Items)
}

// GetRevenue sums the totals of the user's paid invoices.
func (s *InvoiceService) GetRevenue(ctx context.Context, userID string) float64 {
	return s.sum(ctx, userID, models.Invoice.IsPaid)
}

// GetOutstanding sums the totals of the user's unpaid and overdue invoices.
func (s *InvoiceService) GetOutstanding(ctx context.Context, userID string) float64 {
	return s.sum(ctx, userID, models.Invoice.IsOutstanding)
}

func (s *InvoiceService) sum(ctx context.Context, userID string, match func(models.Invoice) bool) float64 {
	total := decimal.Zero
	for _, inv := range s.invoices.List(ctx) {
		if inv.UserID != userID || !match(inv) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(s.ComputeTotals(&inv).Total))
	}
	return total.InexactFloat64()
}
