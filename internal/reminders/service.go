package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/invoices"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// InvoiceSource reads and escalates invoices for the dunning workflow.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
	List(ctx context.Context, req invoices.ListInvoicesRequest) ([]invoices.Invoice, int, error)
	SetStatus(ctx context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) (*invoices.Invoice, error)
}

type Service struct {
	repo     Repository
	invoices InvoiceSource
	now      func() time.Time
}

func NewService(repo Repository, invoiceSource InvoiceSource) *Service {
	return &Service{repo: repo, invoices: invoiceSource, now: time.Now}
}

// OverdueInvoice pairs an overdue invoice with its dunning history.
type OverdueInvoice struct {
	Invoice   invoices.Invoice
	Reminders []Reminder
	NextLevel int
}

// NextLevelName returns the label of the next notice to send, or an empty
// string once the escalation is exhausted.
func (o OverdueInvoice) NextLevelName() string {
	if o.NextLevel == 0 {
		return ""
	}
	return LevelName(o.NextLevel)
}

// ListOverdue returns all invoices currently overdue, each with the
// reminders already sent and the next escalation level.
func (s *Service) ListOverdue(ctx context.Context) ([]OverdueInvoice, error) {
	var result []OverdueInvoice

	// Derived overdue invoices still carry the sent status in the store,
	// so both stored states are collected.
	for _, status := range []string{"overdue", "sent"} {
		st := status
		invs, _, err := s.invoices.List(ctx, invoices.ListInvoicesRequest{Status: &st, Limit: 1000})
		if err != nil {
			return nil, fmt.Errorf("list %s invoices: %w", status, err)
		}
		for _, inv := range invs {
			if inv.Status != billing.InvoiceStatusOverdue {
				continue
			}
			rems, err := s.repo.ListByInvoice(ctx, inv.ID)
			if err != nil {
				return nil, fmt.Errorf("load reminders for invoice %d: %w", inv.ID, err)
			}
			next := len(rems) + 1
			if len(rems) > 0 {
				next = rems[len(rems)-1].Level + 1
			}
			if next > MaxLevel {
				next = 0
			}
			result = append(result, OverdueInvoice{Invoice: inv, Reminders: rems, NextLevel: next})
		}
	}
	return result, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]Reminder, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// Create issues the next dunning notice for an overdue invoice. The level
// escalates by one per notice up to the maximum, the fee follows the level,
// and a derived-overdue invoice is persisted as overdue as a side effect.
func (s *Service) Create(ctx context.Context, invoiceID int64, notes *string) (*Reminder, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != billing.InvoiceStatusOverdue {
		return nil, fmt.Errorf("%w: invoice %s is %s, reminders apply to overdue invoices only",
			shared.ErrInvalidTransition, inv.InvoiceNumber, inv.Status)
	}

	lastLevel, err := s.repo.MaxLevelByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load reminder level: %w", err)
	}
	if lastLevel >= MaxLevel {
		return nil, fmt.Errorf("%w: invoice %s already received the final dunning notice",
			shared.ErrConstraintViolation, inv.InvoiceNumber)
	}

	level := lastLevel + 1
	rem := Reminder{
		InvoiceID: invoiceID,
		Level:     level,
		Fee:       FeeForLevel(level),
		SentDate:  s.today(),
		Notes:     notes,
	}

	id, err := s.repo.Create(ctx, rem)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	rem.ID = id

	// Persist the overdue state when only the read derived it so far.
	// SetStatus refuses same-state transitions, which is exactly what
	// happens when the scan already persisted overdue; that is fine.
	if _, err := s.invoices.SetStatus(ctx, invoiceID, billing.InvoiceStatusOverdue, nil); err != nil &&
		!errors.Is(err, shared.ErrInvalidTransition) {
		return nil, fmt.Errorf("persist overdue status: %w", err)
	}

	return &rem, nil
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
