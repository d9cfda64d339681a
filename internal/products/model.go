package products

import "time"

// Product is a reusable catalog entry for invoice and quote positions.
// Documents copy name, price and tax rate by value at insertion time, so
// later catalog edits never change existing documents.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	Unit        string    `json:"unit"`
	TaxRate     float64   `json:"tax_rate"`
	Category    *string   `json:"category,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
