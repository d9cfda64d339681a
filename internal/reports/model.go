package reports

import (
	"time"

	"github.com/atlas-billing/atlas-billing/internal/billing"
)

// DashboardStats aggregates the numbers shown on the start page.
type DashboardStats struct {
	Revenue           float64         `json:"revenue"`
	RevenueMonth      float64         `json:"revenue_month"`
	OpenAmount        float64         `json:"open_amount"`
	OverdueAmount     float64         `json:"overdue_amount"`
	OverdueCount      int             `json:"overdue_count"`
	DraftCount        int             `json:"draft_count"`
	InvoiceCount      int             `json:"invoice_count"`
	QuoteCount        int             `json:"quote_count"`
	PendingQuoteCount int             `json:"pending_quote_count"`
	CustomerCount     int             `json:"customer_count"`
	RecentInvoices    []RecentInvoice `json:"recent_invoices"`
}

// RecentInvoice is the compact row for the dashboard's latest-invoices list.
type RecentInvoice struct {
	ID            int64                 `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	CustomerName  string                `json:"customer_name"`
	Status        billing.InvoiceStatus `json:"status"`
	DueDate       time.Time             `json:"due_date"`
	Total         float64               `json:"total"`
}

// MonthlyRevenue is the paid revenue of a single month.
type MonthlyRevenue struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}
