package customers

type CreateCustomerRequest struct {
	CompanyName   string  `json:"company_name" validate:"required,max=200"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=200"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	ZipCode       *string `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country       *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID         *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	CompanyName   *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=200"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	ZipCode       *string `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country       *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID         *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty"`
}

type ListCustomersRequest struct {
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
