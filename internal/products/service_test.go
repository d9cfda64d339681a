package products

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-billing/atlas-billing/internal/shared"
)

type memoryProductRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[int64]Product), nextID: 1}
}

func (m *memoryProductRepo) Get(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *memoryProductRepo) List(_ context.Context, req ListProductsRequest) ([]Product, int, error) {
	var all []Product
	for _, p := range m.products {
		if !req.IncludeInactive && !p.IsActive {
			continue
		}
		if req.Search != nil && *req.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(*req.Search)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, len(all), nil
}

func (m *memoryProductRepo) Create(_ context.Context, p Product) (int64, error) {
	id := m.nextID
	m.nextID++
	p.ID = id
	p.IsActive = true
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.products[id] = p
	return id, nil
}

func (m *memoryProductRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["unit_price"]; ok {
		p.UnitPrice = v.(float64)
	}
	if v, ok := updates["tax_rate"]; ok {
		p.TaxRate = v.(float64)
	}
	if v, ok := updates["category"]; ok {
		s := v.(string)
		p.Category = &s
	}
	if v, ok := updates["is_active"]; ok {
		p.IsActive = v.(bool)
	}
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return nil
}

func (m *memoryProductRepo) Deactivate(_ context.Context, id int64) error {
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = false
	m.products[id] = p
	return nil
}

func TestProductServiceCreateDefaultsUnit(t *testing.T) {
	svc := NewService(newMemoryProductRepo())

	created, err := svc.Create(context.Background(), CreateProductRequest{
		Name:      "Beratung",
		UnitPrice: 95,
		TaxRate:   19,
	})
	require.NoError(t, err)
	require.Equal(t, "Stück", created.Unit)
	require.True(t, created.IsActive)
}

func TestProductServiceCreateValidation(t *testing.T) {
	svc := NewService(newMemoryProductRepo())

	_, err := svc.Create(context.Background(), CreateProductRequest{UnitPrice: 10})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateProductRequest{Name: "X", UnitPrice: -1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateProductRequest{Name: "X", TaxRate: 120})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestProductServiceUpdate(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Hosting", UnitPrice: 29, TaxRate: 19, Unit: "Monat"})
	require.NoError(t, err)

	newPrice := 35.0
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{UnitPrice: &newPrice})
	require.NoError(t, err)
	require.Equal(t, 35.0, updated.UnitPrice)
	require.Equal(t, "Hosting", updated.Name)
}

func TestProductServiceCategory(t *testing.T) {
	svc := NewService(newMemoryProductRepo())

	category := "Dienstleistung"
	created, err := svc.Create(context.Background(), CreateProductRequest{
		Name:      "Beratung",
		UnitPrice: 95,
		TaxRate:   19,
		Category:  &category,
	})
	require.NoError(t, err)
	require.NotNil(t, created.Category)
	require.Equal(t, "Dienstleistung", *created.Category)

	newCategory := "Service"
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{Category: &newCategory})
	require.NoError(t, err)
	require.Equal(t, "Service", *updated.Category)
}

func TestProductServiceDeactivateHidesFromDefaultList(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Altprodukt", UnitPrice: 10, TaxRate: 19})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	active, total, err := svc.List(context.Background(), ListProductsRequest{Limit: 50})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, active)

	all, total, err := svc.List(context.Background(), ListProductsRequest{IncludeInactive: true, Limit: 50})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.False(t, all[0].IsActive)

	// The row itself stays readable for documents that reference it.
	still, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Altprodukt", still.Name)
}
