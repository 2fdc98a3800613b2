package models

import (
	"fmt"

	"github.com/diewo77/freelance-pro/validation"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

var invoiceStatuses = []string{
	string(InvoiceStatusPaid),
	string(InvoiceStatusUnpaid),
	string(InvoiceStatusOverdue),
}

// TaxRate is the flat tax applied to every invoice subtotal.
var TaxRate = decimal.RequireFromString("0.16")

// Invoice represents a billing invoice.
// Issue and due dates are calendar dates (YYYY-MM-DD).
type Invoice struct {
	Meta

	ClientID      string        `json:"client_id"`
	ProjectID     string        `json:"project_id"`
	InvoiceNumber string        `json:"invoice_number"`
	IssueDate     string        `json:"issue_date"`
	DueDate       string        `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Notes         string        `json:"notes,omitempty"`
}

// InvoiceItem represents a line item on an invoice.
type InvoiceItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Totals are the derived amounts of an invoice.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// CalculateTotals computes subtotal, tax and total rounded to cents.
// total is the exact sum of the rounded subtotal and tax.
func CalculateTotals(items []InvoiceItem) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(decimal.NewFromInt(int64(it.Quantity)).Mul(decimal.NewFromFloat(it.UnitPrice)))
	}
	sub = sub.Round(2)
	tax := sub.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: sub.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    sub.Add(tax).InexactFloat64(),
	}
}

func (i Invoice) Label() string { return i.InvoiceNumber }

// IsPaid returns true if the invoice has been paid.
func (i Invoice) IsPaid() bool { return i.Status == InvoiceStatusPaid }

// IsOutstanding returns true if payment is still expected.
func (i Invoice) IsOutstanding() bool {
	return i.Status == InvoiceStatusUnpaid || i.Status == InvoiceStatusOverdue
}

// Derive overwrites the stored totals with the ones computed from Items.
func (i *Invoice) Derive() {
	t := CalculateTotals(i.Items)
	i.Subtotal, i.Tax, i.Total = t.Subtotal, t.Tax, t.Total
}

func (i Invoice) Validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("client_id", i.ClientID, v)
	validation.OneOf("status", string(i.Status), invoiceStatuses, v)
	validation.Date("issue_date", i.IssueDate, v)
	validation.Date("due_date", i.DueDate, v)
	for n, it := range i.Items {
		v.Merge(it.validate(fmt.Sprintf("items[%d].", n)))
	}
	return v
}

func (it InvoiceItem) validate(prefix string) validation.Violations {
	v := make(validation.Violations)
	validation.Required(prefix+"description", it.Description, v)
	validation.PositiveInt(prefix+"quantity", it.Quantity, v)
	validation.NonNegativeFloat(prefix+"unitPrice", it.UnitPrice, v)
	return v
}
