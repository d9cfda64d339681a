package quotes

import (
	"time"

	"github.com/atlas-billing/atlas-billing/internal/invoices"
)

type CreateQuoteRequest struct {
	CustomerID int64                  `json:"customer_id" validate:"required,gt=0"`
	IssueDate  *time.Time             `json:"issue_date,omitempty"`
	ValidUntil *time.Time             `json:"valid_until,omitempty"`
	Notes      *string                `json:"notes,omitempty"`
	Items      []invoices.ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuoteRequest edits a draft quote. Items, when present, replace the
// full item list and totals are recomputed.
type UpdateQuoteRequest struct {
	CustomerID *int64                 `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	IssueDate  *time.Time             `json:"issue_date,omitempty"`
	ValidUntil *time.Time             `json:"valid_until,omitempty"`
	Notes      *string                `json:"notes,omitempty"`
	Items      []invoices.ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListQuotesRequest struct {
	Status     *string `json:"status,omitempty"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
