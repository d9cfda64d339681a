package invoices

import "time"

// ItemRequest describes one document position. Either a description or a
// product reference must be present; a bare product reference is expanded
// to a snapshot of the catalog entry. An omitted quantity defaults to 1.
type ItemRequest struct {
	ProductID   *int64   `json:"product_id,omitempty"`
	Description string   `json:"description" validate:"max=500"`
	Quantity    float64  `json:"quantity" validate:"gte=0"`
	Unit        string   `json:"unit" validate:"max=50"`
	UnitPrice   float64  `json:"unit_price"`
	TaxRate     *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type CreateInvoiceRequest struct {
	CustomerID   int64         `json:"customer_id" validate:"required,gt=0"`
	IssueDate    *time.Time    `json:"issue_date,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	DeliveryDate *time.Time    `json:"delivery_date,omitempty"`
	PaymentTerms *string       `json:"payment_terms,omitempty" validate:"omitempty,max=500"`
	Notes        *string       `json:"notes,omitempty"`
	Items        []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateInvoiceRequest edits a draft invoice. Items, when present, replace
// the full item list and totals are recomputed.
type UpdateInvoiceRequest struct {
	CustomerID   *int64        `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	IssueDate    *time.Time    `json:"issue_date,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	DeliveryDate *time.Time    `json:"delivery_date,omitempty"`
	PaymentTerms *string       `json:"payment_terms,omitempty" validate:"omitempty,max=500"`
	Notes        *string       `json:"notes,omitempty"`
	Items        []ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListInvoicesRequest struct {
	Status     *string `json:"status,omitempty"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
