package invoices

import (
	"time"

	"github.com/atlas-billing/atlas-billing/internal/billing"
)

// Invoice is a billing document. Customer and product data are copied by
// value into the document at write time, so the document stays stable when
// master data changes later.
type Invoice struct {
	ID            int64                 `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	CustomerID    int64                 `json:"customer_id"`
	CustomerName  string                `json:"customer_name"`
	Status        billing.InvoiceStatus `json:"status"`
	IssueDate     time.Time             `json:"issue_date"`
	DueDate       time.Time             `json:"due_date"`
	DeliveryDate  *time.Time            `json:"delivery_date,omitempty"`
	PaidDate      *time.Time            `json:"paid_date,omitempty"`
	Subtotal      float64               `json:"subtotal"`
	TaxAmount     float64               `json:"tax_amount"`
	Total         float64               `json:"total"`
	PaymentTerms  *string               `json:"payment_terms,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`

	Items []InvoiceItem `json:"items,omitempty"`
}

// InvoiceItem is a single position on an invoice. ProductID is an optional
// backreference; description, price and tax rate are snapshots.
type InvoiceItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Position    int     `json:"position"`
	ProductID   *int64  `json:"product_id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
	LineTotal   float64 `json:"line_total"`
}

// Lines converts the items to calculation input.
func Lines(items []InvoiceItem) []billing.Line {
	lines := make([]billing.Line, len(items))
	for i, it := range items {
		lines[i] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	}
	return lines
}
