package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/products"
	"github.com/atlas-billing/atlas-billing/internal/settings"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// SettingsSource supplies company settings and document numbers.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// CatalogSource resolves product references for item snapshots.
type CatalogSource interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// StatsCache invalidates cached dashboard aggregates after writes.
type StatsCache interface {
	Bump(ctx context.Context)
}

type Service struct {
	repo     Repository
	settings SettingsSource
	catalog  CatalogSource
	cache    StatsCache
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, settingsSource SettingsSource, catalog CatalogSource, cache StatsCache) *Service {
	return &Service{
		repo:     repo,
		settings: settingsSource,
		catalog:  catalog,
		cache:    cache,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	items, err := s.buildItems(ctx, req.Items, cfg.DefaultTaxRate)
	if err != nil {
		return nil, err
	}
	totals := billing.CalculateTotals(Lines(items), cfg.IsSmallBusiness)

	issueDate := s.today()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, cfg.DefaultPaymentTerms)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	number, err := s.settings.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve invoice number: %w", err)
	}

	inv := &Invoice{
		InvoiceNumber: number,
		CustomerID:    req.CustomerID,
		Status:        billing.InvoiceStatusDraft,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		DeliveryDate:  req.DeliveryDate,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		Total:         totals.Total,
		PaymentTerms:  req.PaymentTerms,
		Notes:         req.Notes,
		Items:         items,
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// Update edits a draft invoice. Sent or later invoices are immutable apart
// from status changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != billing.InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be edited", shared.ErrInvalidTransition)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	updates := make(map[string]interface{})
	if req.CustomerID != nil {
		updates["customer_id"] = *req.CustomerID
	}
	if req.IssueDate != nil {
		updates["issue_date"] = *req.IssueDate
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.DeliveryDate != nil {
		updates["delivery_date"] = *req.DeliveryDate
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var items []InvoiceItem
	if req.Items != nil {
		items, err = s.buildItems(ctx, req.Items, cfg.DefaultTaxRate)
		if err != nil {
			return nil, err
		}
		totals := billing.CalculateTotals(Lines(items), cfg.IsSmallBusiness)
		updates["subtotal"] = totals.Subtotal
		updates["tax_amount"] = totals.TaxAmount
		updates["total"] = totals.Total
	}

	if len(updates) == 0 && items == nil {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates, items); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// Get returns the invoice with its read-time status: a sent invoice past
// due displays as overdue even before the nightly scan persists it.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = billing.DisplayInvoiceStatus(inv.Status, inv.DueDate, s.now())
	return inv, nil
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	invs, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	for i := range invs {
		invs[i].Status = billing.DisplayInvoiceStatus(invs[i].Status, invs[i].DueDate, s.now())
	}
	return invs, total, nil
}

// SetStatus moves the invoice to a new lifecycle state. The transition is
// checked against the read-time status, so marking a derived-overdue
// invoice paid works even before the scan persisted the overdue state.
func (s *Service) SetStatus(ctx context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) (*Invoice, error) {
	if !billing.ValidInvoiceStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}

	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// The transition must be legal either from the stored status or the
	// derived one. Persisting a derived overdue state checks out via the
	// stored sent status; paying a derived-overdue invoice via the
	// derived status.
	effective := billing.DisplayInvoiceStatus(inv.Status, inv.DueDate, s.now())
	if !billing.CanTransitionInvoice(effective, status) && !billing.CanTransitionInvoice(inv.Status, status) {
		return nil, fmt.Errorf("%w: invoice %s cannot move from %s to %s",
			shared.ErrInvalidTransition, inv.InvoiceNumber, effective, status)
	}

	if status == billing.InvoiceStatusPaid {
		if paidDate == nil {
			today := s.today()
			paidDate = &today
		}
	} else {
		paidDate = nil
	}

	if err := s.repo.SetStatus(ctx, id, status, paidDate); err != nil {
		return nil, fmt.Errorf("set invoice status: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// MarkPaid records a payment, defaulting the paid date to today.
func (s *Service) MarkPaid(ctx context.Context, id int64, paidDate *time.Time) (*Invoice, error) {
	return s.SetStatus(ctx, id, billing.InvoiceStatusPaid, paidDate)
}

// Delete removes a draft invoice together with its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != billing.InvoiceStatusDraft {
		return fmt.Errorf("%w: only draft invoices can be deleted", shared.ErrInvalidTransition)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) buildItems(ctx context.Context, reqs []ItemRequest, defaultTaxRate float64) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, len(reqs))
	for i, req := range reqs {
		if req.Description == "" && req.ProductID == nil {
			return nil, fmt.Errorf("%w: item %d needs a description or product reference", shared.ErrValidation, i+1)
		}
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		item := InvoiceItem{
			Position:    i + 1,
			ProductID:   req.ProductID,
			Description: req.Description,
			Quantity:    quantity,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			TaxRate:     defaultTaxRate,
		}
		if req.TaxRate != nil {
			item.TaxRate = *req.TaxRate
		}

		// A bare product reference snapshots the catalog entry.
		if req.ProductID != nil && s.catalog != nil && req.Description == "" {
			p, err := s.catalog.Get(ctx, *req.ProductID)
			if err != nil {
				return nil, fmt.Errorf("resolve product %d: %w", *req.ProductID, err)
			}
			item.Description = p.Name
			item.UnitPrice = p.UnitPrice
			item.TaxRate = p.TaxRate
			if item.Unit == "" {
				item.Unit = p.Unit
			}
			if req.TaxRate != nil {
				item.TaxRate = *req.TaxRate
			}
		}

		if item.Unit == "" {
			item.Unit = "Stück"
		}
		item.LineTotal = billing.LineTotal(item.Quantity, item.UnitPrice)
		items[i] = item
	}
	return items, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		s.cache.Bump(ctx)
	}
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
