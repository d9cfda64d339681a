package quotes

import (
	"time"

	"github.com/atlas-billing/atlas-billing/internal/billing"
)

// Quote is an offer document. Like invoices, customer and product data are
// copied by value at write time. A quote converts into at most one invoice,
// tracked by ConvertedToInvoiceID.
type Quote struct {
	ID                   int64               `json:"id"`
	QuoteNumber          string              `json:"quote_number"`
	CustomerID           int64               `json:"customer_id"`
	CustomerName         string              `json:"customer_name"`
	Status               billing.QuoteStatus `json:"status"`
	IssueDate            time.Time           `json:"issue_date"`
	ValidUntil           time.Time           `json:"valid_until"`
	Subtotal             float64             `json:"subtotal"`
	TaxAmount            float64             `json:"tax_amount"`
	Total                float64             `json:"total"`
	Notes                *string             `json:"notes,omitempty"`
	ConvertedToInvoiceID *int64              `json:"converted_to_invoice_id,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`

	Items []QuoteItem `json:"items,omitempty"`
}

// QuoteItem is a single position on a quote.
type QuoteItem struct {
	ID          int64   `json:"id"`
	QuoteID     int64   `json:"quote_id"`
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
func Lines(items []QuoteItem) []billing.Line {
	lines := make([]billing.Line, len(items))
	for i, it := range items {
		lines[i] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	}
	return lines
}
