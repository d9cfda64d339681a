package products

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"max=50"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Unit        *string  `json:"unit,omitempty" validate:"omitempty,max=50"`
	TaxRate     *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type ListProductsRequest struct {
	Search          *string `json:"search,omitempty"`
	IncludeInactive bool    `json:"include_inactive"`
	Limit           int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset          int     `json:"offset" validate:"gte=0"`
}
