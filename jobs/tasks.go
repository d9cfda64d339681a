// Package jobs runs the background maintenance tasks: the nightly scans
// that persist derived invoice and quote states.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeInvoiceOverdueScan = "billing:invoice_overdue_scan"
	TypeQuoteExpireScan    = "billing:quote_expire_scan"
)

// InvoiceScanner persists overdue states for sent invoices past due.
type InvoiceScanner interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// QuoteScanner persists expired states for sent quotes past validity.
type QuoteScanner interface {
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// StatsCache invalidates cached dashboard aggregates after scans change rows.
type StatsCache interface {
	Bump(ctx context.Context)
}

// Handlers holds the task handler set registered with the worker.
type Handlers struct {
	logger   *slog.Logger
	invoices InvoiceScanner
	quotes   QuoteScanner
	cache    StatsCache
	now      func() time.Time
}

func NewHandlers(logger *slog.Logger, invoices InvoiceScanner, quotes QuoteScanner, cache StatsCache) *Handlers {
	return &Handlers{
		logger:   logger,
		invoices: invoices,
		quotes:   quotes,
		cache:    cache,
		now:      time.Now,
	}
}

// Register wires the handlers into the asynq mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvoiceOverdueScan, h.HandleInvoiceOverdueScan)
	mux.HandleFunc(TypeQuoteExpireScan, h.HandleQuoteExpireScan)
}

// HandleInvoiceOverdueScan flips sent invoices past their due date to
// overdue. Read paths already derive this state; the scan persists it so
// list filters and aggregates see it too.
func (h *Handlers) HandleInvoiceOverdueScan(ctx context.Context, _ *asynq.Task) error {
	asOf := today(h.now())
	n, err := h.invoices.MarkOverdue(ctx, asOf)
	if err != nil {
		h.logger.Error("invoice overdue scan failed", "error", err)
		return err
	}
	if n > 0 && h.cache != nil {
		h.cache.Bump(ctx)
	}
	h.logger.Info("invoice overdue scan done", "marked", n, "as_of", asOf.Format("2006-01-02"))
	return nil
}

// HandleQuoteExpireScan flips sent quotes past their validity date to expired.
func (h *Handlers) HandleQuoteExpireScan(ctx context.Context, _ *asynq.Task) error {
	asOf := today(h.now())
	n, err := h.quotes.MarkExpired(ctx, asOf)
	if err != nil {
		h.logger.Error("quote expire scan failed", "error", err)
		return err
	}
	if n > 0 && h.cache != nil {
		h.cache.Bump(ctx)
	}
	h.logger.Info("quote expire scan done", "marked", n, "as_of", asOf.Format("2006-01-02"))
	return nil
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
