package customers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-billing/atlas-billing/internal/shared"
)

type memoryCustomerRepo struct {
	customers map[int64]Customer
	nextID    int64
	blocked   map[int64]bool
}

func newMemoryCustomerRepo() *memoryCustomerRepo {
	return &memoryCustomerRepo{
		customers: make(map[int64]Customer),
		nextID:    1,
		blocked:   make(map[int64]bool),
	}
}

func (m *memoryCustomerRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *memoryCustomerRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var all []Customer
	for _, c := range m.customers {
		if req.Search != nil && *req.Search != "" {
			needle := strings.ToLower(*req.Search)
			hay := strings.ToLower(c.CompanyName)
			if c.ContactPerson != nil {
				hay += " " + strings.ToLower(*c.ContactPerson)
			}
			if c.Email != nil {
				hay += " " + strings.ToLower(*c.Email)
			}
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CompanyName < all[j].CompanyName })
	return all, len(all), nil
}

func (m *memoryCustomerRepo) Create(_ context.Context, c Customer) (int64, error) {
	id := m.nextID
	m.nextID++
	c.ID = id
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.customers[id] = c
	return id, nil
}

func (m *memoryCustomerRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	c, ok := m.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, v := range updates {
		sv := fmt.Sprintf("%v", v)
		switch col {
		case "company_name":
			c.CompanyName = sv
		case "contact_person":
			c.ContactPerson = &sv
		case "email":
			c.Email = &sv
		case "phone":
			c.Phone = &sv
		case "city":
			c.City = &sv
		case "notes":
			c.Notes = &sv
		}
	}
	c.UpdatedAt = time.Now()
	m.customers[id] = c
	return nil
}

func (m *memoryCustomerRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return shared.ErrNotFound
	}
	if m.blocked[id] {
		return fmt.Errorf("%w: customer has invoices or quotes", shared.ErrConstraintViolation)
	}
	delete(m.customers, id)
	return nil
}

func strp(s string) *string { return &s }

func TestCustomerServiceCreate(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCustomerRequest{
		CompanyName: "Müller GmbH",
		Email:       strp("info@mueller.example"),
		City:        strp("Berlin"),
	})
	require.NoError(t, err)
	require.Equal(t, "Müller GmbH", created.CompanyName)
	require.NotNil(t, created.Email)
	require.Equal(t, "info@mueller.example", *created.Email)
	require.NotZero(t, created.ID)
}

func TestCustomerServiceCreateValidation(t *testing.T) {
	svc := NewService(newMemoryCustomerRepo())

	_, err := svc.Create(context.Background(), CreateCustomerRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateCustomerRequest{
		CompanyName: "Acme",
		Email:       strp("not-an-email"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCustomerServiceUpdate(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCustomerRequest{CompanyName: "Alt GmbH"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateCustomerRequest{
		CompanyName: strp("Neu GmbH"),
		City:        strp("Hamburg"),
	})
	require.NoError(t, err)
	require.Equal(t, "Neu GmbH", updated.CompanyName)
	require.NotNil(t, updated.City)
	require.Equal(t, "Hamburg", *updated.City)
}

func TestCustomerServiceUpdateRejectsEmptyName(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCustomerRequest{CompanyName: "Acme"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateCustomerRequest{CompanyName: strp("")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCustomerServiceUpdateNotFound(t *testing.T) {
	svc := NewService(newMemoryCustomerRepo())

	_, err := svc.Update(context.Background(), 999, UpdateCustomerRequest{CompanyName: strp("X")})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCustomerServiceListSearch(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo)

	for _, name := range []string{"Zeta AG", "Alpha GmbH", "Beta KG"} {
		_, err := svc.Create(context.Background(), CreateCustomerRequest{CompanyName: name})
		require.NoError(t, err)
	}

	all, total, err := svc.List(context.Background(), ListCustomersRequest{Limit: 50})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, "Alpha GmbH", all[0].CompanyName)

	filtered, total, err := svc.List(context.Background(), ListCustomersRequest{Search: strp("beta"), Limit: 50})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Beta KG", filtered[0].CompanyName)
}

func TestCustomerServiceDeleteBlockedByReferences(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCustomerRequest{CompanyName: "Referenced GmbH"})
	require.NoError(t, err)
	repo.blocked[created.ID] = true

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrConstraintViolation)

	still, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Referenced GmbH", still.CompanyName)
}
