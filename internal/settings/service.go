package settings

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// BlobStore persists uploaded files and returns their public URL.
type BlobStore interface {
	Save(originalName string, content io.Reader) (string, error)
}

type Service struct {
	repo     Repository
	store    BlobStore
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, store BlobStore) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context) (*CompanySettings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, req UpdateSettingsRequest) (*CompanySettings, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	updates := make(map[string]interface{})
	putString(updates, "company_name", req.CompanyName)
	putString(updates, "owner_name", req.OwnerName)
	putString(updates, "address", req.Address)
	putString(updates, "zip_code", req.ZipCode)
	putString(updates, "city", req.City)
	putString(updates, "country", req.Country)
	putString(updates, "email", req.Email)
	putString(updates, "phone", req.Phone)
	putString(updates, "website", req.Website)
	putString(updates, "tax_id", req.TaxID)
	putString(updates, "vat_id", req.VatID)
	putString(updates, "bank_name", req.BankName)
	putString(updates, "iban", req.IBAN)
	putString(updates, "bic", req.BIC)
	putString(updates, "invoice_prefix", req.InvoicePrefix)
	putString(updates, "quote_prefix", req.QuotePrefix)
	putString(updates, "footer_text", req.FooterText)
	if req.DefaultPaymentTerms != nil {
		updates["default_payment_terms"] = *req.DefaultPaymentTerms
	}
	if req.DefaultTaxRate != nil {
		updates["default_tax_rate"] = *req.DefaultTaxRate
	}
	if req.IsSmallBusiness != nil {
		updates["is_small_business"] = *req.IsSmallBusiness
	}

	return s.repo.Update(ctx, updates)
}

// NextInvoiceNumber reserves and composes the next invoice number.
func (s *Service) NextInvoiceNumber(ctx context.Context) (string, error) {
	prefix, seq, err := s.repo.ReserveNumber(ctx, KindInvoice)
	if err != nil {
		return "", err
	}
	return billing.FormatDocumentNumber(prefix, s.now().Year(), seq), nil
}

// NextQuoteNumber reserves and composes the next quote number.
func (s *Service) NextQuoteNumber(ctx context.Context) (string, error) {
	prefix, seq, err := s.repo.ReserveNumber(ctx, KindQuote)
	if err != nil {
		return "", err
	}
	return billing.FormatDocumentNumber(prefix, s.now().Year(), seq), nil
}

// UploadLogo stores the logo file and records its public URL.
func (s *Service) UploadLogo(ctx context.Context, filename string, content io.Reader) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("logo upload not configured")
	}
	url, err := s.store.Save(filename, content)
	if err != nil {
		return "", fmt.Errorf("store logo: %w", err)
	}
	if _, err := s.repo.Update(ctx, map[string]interface{}{"logo_url": url}); err != nil {
		return "", fmt.Errorf("record logo url: %w", err)
	}
	return url, nil
}

func putString(updates map[string]interface{}, key string, v *string) {
	if v != nil {
		updates[key] = *v
	}
}
