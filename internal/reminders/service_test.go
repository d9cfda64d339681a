package reminders

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/invoices"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

type memoryReminderRepo struct {
	reminders map[int64][]Reminder
	nextID    int64
}

func newMemoryReminderRepo() *memoryReminderRepo {
	return &memoryReminderRepo{reminders: make(map[int64][]Reminder), nextID: 1}
}

func (m *memoryReminderRepo) ListByInvoice(_ context.Context, invoiceID int64) ([]Reminder, error) {
	rems := append([]Reminder(nil), m.reminders[invoiceID]...)
	sort.Slice(rems, func(i, j int) bool { return rems[i].Level < rems[j].Level })
	return rems, nil
}

func (m *memoryReminderRepo) MaxLevelByInvoice(_ context.Context, invoiceID int64) (int, error) {
	max := 0
	for _, r := range m.reminders[invoiceID] {
		if r.Level > max {
			max = r.Level
		}
	}
	return max, nil
}

func (m *memoryReminderRepo) Create(_ context.Context, rem Reminder) (int64, error) {
	rem.ID = m.nextID
	m.nextID++
	rem.CreatedAt = time.Now()
	m.reminders[rem.InvoiceID] = append(m.reminders[rem.InvoiceID], rem)
	return rem.ID, nil
}

type fakeInvoiceSource struct {
	invoices map[int64]invoices.Invoice
	now      time.Time
}

func (f *fakeInvoiceSource) Get(_ context.Context, id int64) (*invoices.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := inv
	out.Status = billing.DisplayInvoiceStatus(out.Status, out.DueDate, f.now)
	return &out, nil
}

func (f *fakeInvoiceSource) List(_ context.Context, req invoices.ListInvoicesRequest) ([]invoices.Invoice, int, error) {
	var all []invoices.Invoice
	for _, inv := range f.invoices {
		if req.Status != nil && string(inv.Status) != *req.Status {
			continue
		}
		out := inv
		out.Status = billing.DisplayInvoiceStatus(out.Status, out.DueDate, f.now)
		all = append(all, out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, len(all), nil
}

func (f *fakeInvoiceSource) SetStatus(_ context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) (*invoices.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	effective := billing.DisplayInvoiceStatus(inv.Status, inv.DueDate, f.now)
	if !billing.CanTransitionInvoice(effective, status) && !billing.CanTransitionInvoice(inv.Status, status) {
		return nil, shared.ErrInvalidTransition
	}
	inv.Status = status
	inv.PaidDate = paidDate
	f.invoices[id] = inv
	out := inv
	return &out, nil
}

func dateAt(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() (*Service, *memoryReminderRepo, *fakeInvoiceSource) {
	repo := newMemoryReminderRepo()
	now := dateAt(2026, time.March, 10)
	src := &fakeInvoiceSource{
		invoices: map[int64]invoices.Invoice{
			1: {ID: 1, InvoiceNumber: "RE2026-001", Status: billing.InvoiceStatusSent,
				DueDate: dateAt(2026, time.February, 1), Total: 119},
			2: {ID: 2, InvoiceNumber: "RE2026-002", Status: billing.InvoiceStatusSent,
				DueDate: dateAt(2026, time.April, 1), Total: 59.5},
			3: {ID: 3, InvoiceNumber: "RE2026-003", Status: billing.InvoiceStatusPaid,
				DueDate: dateAt(2026, time.January, 1), Total: 10},
		},
		now: now,
	}
	svc := NewService(repo, src)
	svc.now = func() time.Time { return now }
	return svc, repo, src
}

func TestReminderEscalation(t *testing.T) {
	svc, _, src := newTestService()

	first, err := svc.Create(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, LevelPaymentReminder, first.Level)
	require.Zero(t, first.Fee)
	require.Equal(t, dateAt(2026, time.March, 10), first.SentDate)

	// Creating a reminder persists the derived overdue state.
	require.Equal(t, billing.InvoiceStatusOverdue, src.invoices[1].Status)

	second, err := svc.Create(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, LevelFirstDunning, second.Level)
	require.Equal(t, 5.0, second.Fee)

	third, err := svc.Create(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, LevelSecondDunning, third.Level)
	require.Equal(t, 10.0, third.Fee)

	// No escalation beyond the final notice.
	_, err = svc.Create(context.Background(), 1, nil)
	require.ErrorIs(t, err, shared.ErrConstraintViolation)
}

func TestReminderRequiresOverdueInvoice(t *testing.T) {
	svc, _, _ := newTestService()

	// Not yet due.
	_, err := svc.Create(context.Background(), 2, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	// Already paid.
	_, err = svc.Create(context.Background(), 3, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestListOverdue(t *testing.T) {
	svc, _, _ := newTestService()

	overdue, err := svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, int64(1), overdue[0].Invoice.ID)
	require.Equal(t, billing.InvoiceStatusOverdue, overdue[0].Invoice.Status)
	require.Empty(t, overdue[0].Reminders)
	require.Equal(t, 1, overdue[0].NextLevel)

	_, err = svc.Create(context.Background(), 1, nil)
	require.NoError(t, err)

	overdue, err = svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Len(t, overdue[0].Reminders, 1)
	require.Equal(t, 2, overdue[0].NextLevel)
}

func TestLevelNamesAndFees(t *testing.T) {
	require.Equal(t, "Zahlungserinnerung", LevelName(1))
	require.Equal(t, "1. Mahnung", LevelName(2))
	require.Equal(t, "2. Mahnung", LevelName(3))
	require.Zero(t, FeeForLevel(1))
	require.Equal(t, 5.0, FeeForLevel(2))
	require.Equal(t, 10.0, FeeForLevel(3))
}
