package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	marked int64
	err    error
	asOf   time.Time
}

func (f *fakeScanner) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	f.asOf = asOf
	return f.marked, f.err
}

func (f *fakeScanner) MarkExpired(_ context.Context, asOf time.Time) (int64, error) {
	f.asOf = asOf
	return f.marked, f.err
}

type fakeCache struct{ bumps int }

func (f *fakeCache) Bump(context.Context) { f.bumps++ }

func newTestHandlers(invoices *fakeScanner, quotes *fakeScanner, cache *fakeCache) *Handlers {
	h := NewHandlers(slog.New(slog.NewTextHandler(io.Discard, nil)), invoices, quotes, cache)
	h.now = func() time.Time { return time.Date(2026, time.March, 10, 3, 15, 0, 0, time.UTC) }
	return h
}

func TestInvoiceOverdueScanBumpsCacheWhenRowsChange(t *testing.T) {
	invoices := &fakeScanner{marked: 3}
	cache := &fakeCache{}
	h := newTestHandlers(invoices, &fakeScanner{}, cache)

	err := h.HandleInvoiceOverdueScan(context.Background(), asynq.NewTask(TypeInvoiceOverdueScan, nil))
	require.NoError(t, err)
	require.Equal(t, 1, cache.bumps)

	// The scan compares against the start of the current day.
	require.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), invoices.asOf)
}

func TestScansSkipBumpWhenNothingChanged(t *testing.T) {
	cache := &fakeCache{}
	h := newTestHandlers(&fakeScanner{}, &fakeScanner{}, cache)

	require.NoError(t, h.HandleInvoiceOverdueScan(context.Background(), asynq.NewTask(TypeInvoiceOverdueScan, nil)))
	require.NoError(t, h.HandleQuoteExpireScan(context.Background(), asynq.NewTask(TypeQuoteExpireScan, nil)))
	require.Zero(t, cache.bumps)
}

func TestQuoteExpireScanPropagatesError(t *testing.T) {
	quotes := &fakeScanner{err: context.DeadlineExceeded}
	h := newTestHandlers(&fakeScanner{}, quotes, &fakeCache{})

	err := h.HandleQuoteExpireScan(context.Background(), asynq.NewTask(TypeQuoteExpireScan, nil))
	require.Error(t, err)
}
