package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/invoices"
	"github.com/atlas-billing/atlas-billing/internal/products"
	"github.com/atlas-billing/atlas-billing/internal/settings"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// Quotes stay valid for 30 days unless the caller picks a date; a
// converted invoice falls due after the conversion payment window.
const (
	defaultValidityDays   = 30
	conversionDueDateDays = 14
)

// SettingsSource supplies company settings and document numbers.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
	NextQuoteNumber(ctx context.Context) (string, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// CatalogSource resolves product references for item snapshots.
type CatalogSource interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// InvoiceWriter persists invoices created from accepted quotes.
type InvoiceWriter interface {
	Create(ctx context.Context, inv *invoices.Invoice) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// StatsCache invalidates cached dashboard aggregates after writes.
type StatsCache interface {
	Bump(ctx context.Context)
}

type Service struct {
	repo     Repository
	invoices InvoiceWriter
	settings SettingsSource
	catalog  CatalogSource
	cache    StatsCache
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, invoiceWriter InvoiceWriter, settingsSource SettingsSource, catalog CatalogSource, cache StatsCache) *Service {
	return &Service{
		repo:     repo,
		invoices: invoiceWriter,
		settings: settingsSource,
		catalog:  catalog,
		cache:    cache,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (*Quote, error) {
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
	validUntil := issueDate.AddDate(0, 0, defaultValidityDays)
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}

	number, err := s.settings.NextQuoteNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve quote number: %w", err)
	}

	q := &Quote{
		QuoteNumber: number,
		CustomerID:  req.CustomerID,
		Status:      billing.QuoteStatusDraft,
		IssueDate:   issueDate,
		ValidUntil:  validUntil,
		Subtotal:    totals.Subtotal,
		TaxAmount:   totals.TaxAmount,
		Total:       totals.Total,
		Notes:       req.Notes,
		Items:       items,
	}

	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// Update edits a draft quote.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest) (*Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != billing.QuoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft quotes can be edited", shared.ErrInvalidTransition)
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
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var items []QuoteItem
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
		return nil, fmt.Errorf("update quote: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// Get returns the quote with its read-time status: a sent quote past its
// validity deadline displays as expired before the nightly scan persists it.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Status = billing.DisplayQuoteStatus(q.Status, q.ValidUntil, s.now())
	return q, nil
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	qs, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	for i := range qs {
		qs[i].Status = billing.DisplayQuoteStatus(qs[i].Status, qs[i].ValidUntil, s.now())
	}
	return qs, total, nil
}

// SetStatus moves the quote to a new lifecycle state.
func (s *Service) SetStatus(ctx context.Context, id int64, status billing.QuoteStatus) (*Quote, error) {
	if !billing.ValidQuoteStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}

	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	effective := billing.DisplayQuoteStatus(q.Status, q.ValidUntil, s.now())
	if !billing.CanTransitionQuote(effective, status) {
		return nil, fmt.Errorf("%w: quote %s cannot move from %s to %s",
			shared.ErrInvalidTransition, q.QuoteNumber, effective, status)
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set quote status: %w", err)
	}

	s.bump(ctx)
	return s.Get(ctx, id)
}

// Delete removes a draft quote together with its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if q.Status != billing.QuoteStatusDraft {
		return fmt.Errorf("%w: only draft quotes can be deleted", shared.ErrInvalidTransition)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// Convert turns a sent or accepted quote into a fresh draft invoice. Items
// and totals are copied by value; the invoice gets its own number and a due
// date counted from today. A quote converts at most once: the link to the
// invoice is claimed with a conditional update that also fixes the quote's
// status to accepted, and when another conversion already claimed it the
// freshly created invoice is removed again.
func (s *Service) Convert(ctx context.Context, id int64) (*invoices.Invoice, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.ConvertedToInvoiceID != nil {
		return nil, fmt.Errorf("%w: quote %s was already converted", shared.ErrNotConvertible, q.QuoteNumber)
	}
	if q.Status != billing.QuoteStatusAccepted && q.Status != billing.QuoteStatusSent {
		return nil, fmt.Errorf("%w: quote %s is %s, only sent or accepted quotes convert",
			shared.ErrNotConvertible, q.QuoteNumber, q.Status)
	}

	number, err := s.settings.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve invoice number: %w", err)
	}

	today := s.today()
	inv := &invoices.Invoice{
		InvoiceNumber: number,
		CustomerID:    q.CustomerID,
		Status:        billing.InvoiceStatusDraft,
		IssueDate:     today,
		DueDate:       today.AddDate(0, 0, conversionDueDateDays),
		Subtotal:      q.Subtotal,
		TaxAmount:     q.TaxAmount,
		Total:         q.Total,
		Notes:         q.Notes,
		Items:         copyItems(q.Items),
	}

	invoiceID, err := s.invoices.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice from quote: %w", err)
	}

	claimed, err := s.repo.ClaimConversion(ctx, id, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("claim conversion: %w", err)
	}
	if !claimed {
		// Lost the race: another request converted first. Remove the
		// invoice we just created so no orphan remains.
		if delErr := s.invoices.Delete(ctx, invoiceID); delErr != nil {
			return nil, fmt.Errorf("%w: conversion raced and cleanup failed: %v", shared.ErrNotConvertible, delErr)
		}
		return nil, fmt.Errorf("%w: quote %s was already converted", shared.ErrNotConvertible, q.QuoteNumber)
	}

	inv.ID = invoiceID
	s.bump(ctx)
	return inv, nil
}

func copyItems(items []QuoteItem) []invoices.InvoiceItem {
	out := make([]invoices.InvoiceItem, len(items))
	for i, it := range items {
		out[i] = invoices.InvoiceItem{
			Position:    it.Position,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			LineTotal:   it.LineTotal,
		}
	}
	return out
}

func (s *Service) buildItems(ctx context.Context, reqs []invoices.ItemRequest, defaultTaxRate float64) ([]QuoteItem, error) {
	items := make([]QuoteItem, len(reqs))
	for i, req := range reqs {
		if req.Description == "" && req.ProductID == nil {
			return nil, fmt.Errorf("%w: item %d needs a description or product reference", shared.ErrValidation, i+1)
		}
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		item := QuoteItem{
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
