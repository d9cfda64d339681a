package customers

import "time"

type Customer struct {
	ID            int64     `json:"id" db:"id"`
	CompanyName   string    `json:"company_name" db:"company_name"`
	ContactPerson *string   `json:"contact_person,omitempty" db:"contact_person"`
	Email         *string   `json:"email,omitempty" db:"email"`
	Phone         *string   `json:"phone,omitempty" db:"phone"`
	Address       *string   `json:"address,omitempty" db:"address"`
	ZipCode       *string   `json:"zip_code,omitempty" db:"zip_code"`
	City          *string   `json:"city,omitempty" db:"city"`
	Country       *string   `json:"country,omitempty" db:"country"`
	TaxID         *string   `json:"tax_id,omitempty" db:"tax_id"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
