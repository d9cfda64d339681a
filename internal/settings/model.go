package settings

import "time"

// CompanySettings is the singleton record describing the issuing company,
// including the document numbering state.
type CompanySettings struct {
	ID                  int64     `json:"id" db:"id"`
	CompanyName         string    `json:"company_name" db:"company_name"`
	OwnerName           *string   `json:"owner_name,omitempty" db:"owner_name"`
	Address             *string   `json:"address,omitempty" db:"address"`
	ZipCode             *string   `json:"zip_code,omitempty" db:"zip_code"`
	City                *string   `json:"city,omitempty" db:"city"`
	Country             *string   `json:"country,omitempty" db:"country"`
	Email               *string   `json:"email,omitempty" db:"email"`
	Phone               *string   `json:"phone,omitempty" db:"phone"`
	Website             *string   `json:"website,omitempty" db:"website"`
	TaxID               *string   `json:"tax_id,omitempty" db:"tax_id"`
	VatID               *string   `json:"vat_id,omitempty" db:"vat_id"`
	BankName            *string   `json:"bank_name,omitempty" db:"bank_name"`
	IBAN                *string   `json:"iban,omitempty" db:"iban"`
	BIC                 *string   `json:"bic,omitempty" db:"bic"`
	LogoURL             *string   `json:"logo_url,omitempty" db:"logo_url"`
	InvoicePrefix       string    `json:"invoice_prefix" db:"invoice_prefix"`
	NextInvoiceNumber   int64     `json:"next_invoice_number" db:"next_invoice_number"`
	QuotePrefix         string    `json:"quote_prefix" db:"quote_prefix"`
	NextQuoteNumber     int64     `json:"next_quote_number" db:"next_quote_number"`
	DefaultPaymentTerms int       `json:"default_payment_terms" db:"default_payment_terms"`
	DefaultTaxRate      float64   `json:"default_tax_rate" db:"default_tax_rate"`
	FooterText          *string   `json:"footer_text,omitempty" db:"footer_text"`
	IsSmallBusiness     bool      `json:"is_small_business" db:"is_small_business"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
