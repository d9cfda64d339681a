package settings

// UpdateSettingsRequest carries the editable settings fields. Absent
// pointers leave the stored value untouched.
type UpdateSettingsRequest struct {
	CompanyName         *string  `json:"company_name,omitempty" validate:"omitempty,max=200"`
	OwnerName           *string  `json:"owner_name,omitempty" validate:"omitempty,max=200"`
	Address             *string  `json:"address,omitempty"`
	ZipCode             *string  `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	City                *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Country             *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	Email               *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone               *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website             *string  `json:"website,omitempty" validate:"omitempty,max=200"`
	TaxID               *string  `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	VatID               *string  `json:"vat_id,omitempty" validate:"omitempty,max=50"`
	BankName            *string  `json:"bank_name,omitempty" validate:"omitempty,max=200"`
	IBAN                *string  `json:"iban,omitempty" validate:"omitempty,max=42"`
	BIC                 *string  `json:"bic,omitempty" validate:"omitempty,max=11"`
	InvoicePrefix       *string  `json:"invoice_prefix,omitempty" validate:"omitempty,max=10"`
	QuotePrefix         *string  `json:"quote_prefix,omitempty" validate:"omitempty,max=10"`
	DefaultPaymentTerms *int     `json:"default_payment_terms,omitempty" validate:"omitempty,gte=0,lte=365"`
	DefaultTaxRate      *float64 `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	FooterText          *string  `json:"footer_text,omitempty"`
	IsSmallBusiness     *bool    `json:"is_small_business,omitempty"`
}
