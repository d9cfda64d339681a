package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// DocumentKind selects which numbering counter to reserve from.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindQuote   DocumentKind = "quote"
)

type Repository interface {
	Get(ctx context.Context) (*CompanySettings, error)
	Update(ctx context.Context, updates map[string]interface{}) (*CompanySettings, error)
	// ReserveNumber atomically consumes the next sequence value for the
	// given kind and returns it together with the configured prefix.
	// Counters are monotonically increasing and never reused.
	ReserveNumber(ctx context.Context, kind DocumentKind) (prefix string, seq int64, err error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const settingsColumns = `id, company_name, owner_name, address, zip_code, city, country,
	email, phone, website, tax_id, vat_id, bank_name, iban, bic, logo_url,
	invoice_prefix, next_invoice_number, quote_prefix, next_quote_number,
	default_payment_terms, default_tax_rate, footer_text, is_small_business,
	created_at, updated_at`

func (r *repository) Get(ctx context.Context) (*CompanySettings, error) {
	s, err := r.fetch(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// First run: create the default row, mirroring the singleton contract.
	_, err = r.db.Exec(ctx, `
		INSERT INTO company_settings (company_name, invoice_prefix, quote_prefix)
		VALUES ('Meine Firma', 'RE', 'AN')
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("insert default settings: %w", err)
	}
	return r.fetch(ctx)
}

func (r *repository) fetch(ctx context.Context) (*CompanySettings, error) {
	query := fmt.Sprintf("SELECT %s FROM company_settings ORDER BY id LIMIT 1", settingsColumns)
	row := r.db.QueryRow(ctx, query)
	s, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, updates map[string]interface{}) (*CompanySettings, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return current, nil
	}

	query := "UPDATE company_settings SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"company_name", "owner_name", "address", "zip_code", "city", "country",
		"email", "phone", "website", "tax_id", "vat_id",
		"bank_name", "iban", "bic", "logo_url",
		"invoice_prefix", "quote_prefix",
		"default_payment_terms", "default_tax_rate", "footer_text", "is_small_business",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, current.ID)

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return r.fetch(ctx)
}

func (r *repository) ReserveNumber(ctx context.Context, kind DocumentKind) (string, int64, error) {
	var query string
	switch kind {
	case KindInvoice:
		query = `
			UPDATE company_settings
			SET next_invoice_number = next_invoice_number + 1, updated_at = NOW()
			WHERE id = (SELECT id FROM company_settings ORDER BY id LIMIT 1)
			RETURNING invoice_prefix, next_invoice_number - 1`
	case KindQuote:
		query = `
			UPDATE company_settings
			SET next_quote_number = next_quote_number + 1, updated_at = NOW()
			WHERE id = (SELECT id FROM company_settings ORDER BY id LIMIT 1)
			RETURNING quote_prefix, next_quote_number - 1`
	default:
		return "", 0, fmt.Errorf("unknown document kind %q", kind)
	}

	var prefix string
	var seq int64
	if err := r.db.QueryRow(ctx, query).Scan(&prefix, &seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Settings row does not exist yet; create it and retry once.
			if _, gerr := r.Get(ctx); gerr != nil {
				return "", 0, gerr
			}
			if err := r.db.QueryRow(ctx, query).Scan(&prefix, &seq); err != nil {
				return "", 0, fmt.Errorf("reserve %s number: %w", kind, err)
			}
			return prefix, seq, nil
		}
		return "", 0, fmt.Errorf("reserve %s number: %w", kind, err)
	}
	return prefix, seq, nil
}

func scanSettings(row pgx.Row) (*CompanySettings, error) {
	var s CompanySettings
	var ownerName, address, zipCode, city, country, email, phone, website pgtype.Text
	var taxID, vatID, bankName, iban, bic, logoURL, footerText pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&s.ID, &s.CompanyName, &ownerName, &address, &zipCode, &city, &country,
		&email, &phone, &website, &taxID, &vatID, &bankName, &iban, &bic, &logoURL,
		&s.InvoicePrefix, &s.NextInvoiceNumber, &s.QuotePrefix, &s.NextQuoteNumber,
		&s.DefaultPaymentTerms, &s.DefaultTaxRate, &footerText, &s.IsSmallBusiness,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.OwnerName = textPtr(ownerName)
	s.Address = textPtr(address)
	s.ZipCode = textPtr(zipCode)
	s.City = textPtr(city)
	s.Country = textPtr(country)
	s.Email = textPtr(email)
	s.Phone = textPtr(phone)
	s.Website = textPtr(website)
	s.TaxID = textPtr(taxID)
	s.VatID = textPtr(vatID)
	s.BankName = textPtr(bankName)
	s.IBAN = textPtr(iban)
	s.BIC = textPtr(bic)
	s.LogoURL = textPtr(logoURL)
	s.FooterText = textPtr(footerText)
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}
	return &s, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
