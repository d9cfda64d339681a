package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/products"
	"github.com/atlas-billing/atlas-billing/internal/settings"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices map[int64]Invoice
	nextID   int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[int64]Invoice), nextID: 1}
}

func (m *memoryInvoiceRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := inv
	out.Items = append([]InvoiceItem(nil), inv.Items...)
	return &out, nil
}

func (m *memoryInvoiceRepo) List(_ context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var all []Invoice
	for _, inv := range m.invoices {
		if req.Status != nil && string(inv.Status) != *req.Status {
			continue
		}
		if req.CustomerID != nil && inv.CustomerID != *req.CustomerID {
			continue
		}
		all = append(all, inv)
	}
	return all, len(all), nil
}

func (m *memoryInvoiceRepo) Create(_ context.Context, inv *Invoice) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *inv
	stored.ID = id
	for i := range stored.Items {
		stored.Items[i].ID = int64(i + 1)
		stored.Items[i].InvoiceID = id
	}
	m.invoices[id] = stored
	return id, nil
}

func (m *memoryInvoiceRepo) Update(_ context.Context, id int64, updates map[string]interface{}, items []InvoiceItem) error {
	inv, ok := m.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["customer_id"]; ok {
		inv.CustomerID = v.(int64)
	}
	if v, ok := updates["due_date"]; ok {
		inv.DueDate = v.(time.Time)
	}
	if v, ok := updates["delivery_date"]; ok {
		d := v.(time.Time)
		inv.DeliveryDate = &d
	}
	if v, ok := updates["payment_terms"]; ok {
		s := v.(string)
		inv.PaymentTerms = &s
	}
	if v, ok := updates["subtotal"]; ok {
		inv.Subtotal = v.(float64)
	}
	if v, ok := updates["tax_amount"]; ok {
		inv.TaxAmount = v.(float64)
	}
	if v, ok := updates["total"]; ok {
		inv.Total = v.(float64)
	}
	if items != nil {
		inv.Items = items
	}
	m.invoices[id] = inv
	return nil
}

func (m *memoryInvoiceRepo) SetStatus(_ context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) error {
	inv, ok := m.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Status = status
	inv.PaidDate = paidDate
	m.invoices[id] = inv
	return nil
}

func (m *memoryInvoiceRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *memoryInvoiceRepo) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, inv := range m.invoices {
		if inv.Status == billing.InvoiceStatusSent && inv.DueDate.Before(asOf) {
			inv.Status = billing.InvoiceStatusOverdue
			m.invoices[id] = inv
			n++
		}
	}
	return n, nil
}

type fakeSettings struct {
	cfg     settings.CompanySettings
	nextSeq int64
}

func (f *fakeSettings) Get(_ context.Context) (*settings.CompanySettings, error) {
	cfg := f.cfg
	return &cfg, nil
}

func (f *fakeSettings) NextInvoiceNumber(_ context.Context) (string, error) {
	f.nextSeq++
	return billing.FormatDocumentNumber(f.cfg.InvoicePrefix, 2026, f.nextSeq), nil
}

type fakeCatalog struct {
	products map[int64]products.Product
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (*products.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := p
	return &out, nil
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) { c.bumps++ }

func i64(v int64) *int64       { return &v }
func f64(v float64) *float64   { return &v }
func dateAt(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *memoryInvoiceRepo, *fakeSettings, *countingCache) {
	t.Helper()
	repo := newMemoryInvoiceRepo()
	cfg := &fakeSettings{cfg: settings.CompanySettings{
		InvoicePrefix:       "RE",
		DefaultPaymentTerms: 14,
		DefaultTaxRate:      19,
	}}
	catalog := &fakeCatalog{products: map[int64]products.Product{
		7: {ID: 7, Name: "Beratung", UnitPrice: 95, Unit: "Stunde", TaxRate: 19, IsActive: true},
	}}
	cache := &countingCache{}
	svc := NewService(repo, cfg, catalog, cache)
	svc.now = func() time.Time { return dateAt(2026, time.March, 10) }
	return svc, repo, cfg, cache
}

func TestInvoiceCreateComputesTotalsAndNumber(t *testing.T) {
	svc, _, _, cache := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items: []ItemRequest{
			{Description: "Design", Quantity: 2, UnitPrice: 100},
			{Description: "Hosting", Quantity: 1, UnitPrice: 50, TaxRate: f64(7)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "RE2026-001", inv.InvoiceNumber)
	require.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	require.Equal(t, 250.0, inv.Subtotal)
	require.Equal(t, 41.5, inv.TaxAmount)
	require.Equal(t, 291.5, inv.Total)
	require.Equal(t, inv.Subtotal+inv.TaxAmount, inv.Total)
	require.Len(t, inv.Items, 2)
	require.Equal(t, 1, inv.Items[0].Position)
	require.Equal(t, 200.0, inv.Items[0].LineTotal)
	require.Equal(t, 1, cache.bumps)

	// Payment terms default the due date.
	require.Equal(t, dateAt(2026, time.March, 24), inv.DueDate)
}

func TestInvoiceCreateSmallBusinessSuppressesTax(t *testing.T) {
	svc, _, cfg, _ := newTestService(t)
	cfg.cfg.IsSmallBusiness = true

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items: []ItemRequest{
			{Description: "Design", Quantity: 2, UnitPrice: 100},
			{Description: "Hosting", Quantity: 1, UnitPrice: 50, TaxRate: f64(7)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 250.0, inv.Subtotal)
	require.Zero(t, inv.TaxAmount)
	require.Equal(t, 250.0, inv.Total)
}

func TestInvoiceCreateSnapshotsProduct(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{ProductID: i64(7), Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, "Beratung", inv.Items[0].Description)
	require.Equal(t, 95.0, inv.Items[0].UnitPrice)
	require.Equal(t, "Stunde", inv.Items[0].Unit)
	require.Equal(t, 285.0, inv.Items[0].LineTotal)
}

func TestInvoiceCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{CustomerID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Quantity: 1, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestInvoiceCarriesDeliveryDateAndPaymentTerms(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	terms := "Zahlbar innerhalb von 14 Tagen ohne Abzug."
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID:   1,
		DeliveryDate: timePtr(dateAt(2026, time.March, 5)),
		PaymentTerms: &terms,
		Items:        []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	require.NotNil(t, inv.DeliveryDate)
	require.Equal(t, dateAt(2026, time.March, 5), *inv.DeliveryDate)
	require.NotNil(t, inv.PaymentTerms)
	require.Equal(t, terms, *inv.PaymentTerms)

	newTerms := "Vorkasse"
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{
		DeliveryDate: timePtr(dateAt(2026, time.March, 8)),
		PaymentTerms: &newTerms,
	})
	require.NoError(t, err)
	require.Equal(t, dateAt(2026, time.March, 8), *updated.DeliveryDate)
	require.Equal(t, newTerms, *updated.PaymentTerms)
}

func TestInvoiceItemQuantityDefaultsToOne(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "Pauschale", UnitPrice: 120}},
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, inv.Items[0].Quantity)
	require.Equal(t, 120.0, inv.Items[0].LineTotal)
	require.Equal(t, 120.0, inv.Subtotal)
}

func TestInvoiceStatusTransitions(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	// draft -> paid is not allowed.
	_, err = svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusPaid, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	sent, err := svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusSent, nil)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusSent, sent.Status)

	paid, err := svc.MarkPaid(context.Background(), inv.ID, nil)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	require.Equal(t, dateAt(2026, time.March, 10), *paid.PaidDate)

	// paid is terminal.
	_, err = svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusCancelled, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestInvoiceDerivedOverdueCanBePaid(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		DueDate:    timePtr(dateAt(2026, time.February, 1)),
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusSent, nil)
	require.NoError(t, err)

	// Stored status is still sent, but reads derive overdue.
	stored, err := repo.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusSent, stored.Status)

	got, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusOverdue, got.Status)

	paid, err := svc.MarkPaid(context.Background(), inv.ID, nil)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusPaid, paid.Status)
}

func TestInvoiceUpdateDraftOnly(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{
		Items: []ItemRequest{{Description: "Y", Quantity: 2, UnitPrice: 75}},
	})
	require.NoError(t, err)
	require.Equal(t, 150.0, updated.Subtotal)
	require.Equal(t, 28.5, updated.TaxAmount)
	require.Equal(t, 178.5, updated.Total)

	_, err = svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusSent, nil)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{
		Items: []ItemRequest{{Description: "Z", Quantity: 1, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestInvoiceDeleteDraftOnly(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), inv.ID, billing.InvoiceStatusSent, nil)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(context.Background(), inv.ID), shared.ErrInvalidTransition)

	draft, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), draft.ID))
	_, err = svc.Get(context.Background(), draft.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

// blockedDeleteRepo simulates a backend refusing the delete because a
// quote still references the invoice.
type blockedDeleteRepo struct{ *memoryInvoiceRepo }

func (b *blockedDeleteRepo) Delete(context.Context, int64) error {
	return shared.ErrConstraintViolation
}

func TestInvoiceDeleteSurfacesConstraintViolation(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 1,
		Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	svc.repo = &blockedDeleteRepo{repo}
	require.ErrorIs(t, svc.Delete(context.Background(), inv.ID), shared.ErrConstraintViolation)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for i, want := range []string{"RE2026-001", "RE2026-002", "RE2026-003"} {
		inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
			CustomerID: int64(i + 1),
			Items:      []ItemRequest{{Description: "X", Quantity: 1, UnitPrice: 10}},
		})
		require.NoError(t, err)
		require.Equal(t, want, inv.InvoiceNumber)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
