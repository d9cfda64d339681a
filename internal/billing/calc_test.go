package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateTotalsMixedRates(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: 100, TaxRate: 19},
		{Quantity: 1, UnitPrice: 50, TaxRate: 7},
	}

	totals := CalculateTotals(lines, false)
	require.Equal(t, 250.00, totals.Subtotal)
	require.Equal(t, 41.50, totals.TaxAmount)
	require.Equal(t, 291.50, totals.Total)
}

func TestCalculateTotalsSmallBusiness(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: 100, TaxRate: 19},
		{Quantity: 1, UnitPrice: 50, TaxRate: 7},
	}

	totals := CalculateTotals(lines, true)
	require.Equal(t, 250.00, totals.Subtotal)
	require.Equal(t, 0.00, totals.TaxAmount)
	require.Equal(t, 250.00, totals.Total)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	totals := CalculateTotals(nil, false)
	require.Zero(t, totals.Subtotal)
	require.Zero(t, totals.TaxAmount)
	require.Zero(t, totals.Total)
}

func TestCalculateTotalsInvariant(t *testing.T) {
	cases := [][]Line{
		{{Quantity: 1, UnitPrice: 0.1, TaxRate: 19}, {Quantity: 3, UnitPrice: 0.2, TaxRate: 19}},
		{{Quantity: 7, UnitPrice: 13.37, TaxRate: 7}, {Quantity: 2.5, UnitPrice: 80, TaxRate: 0}},
		{{Quantity: 100, UnitPrice: 9.99, TaxRate: 19}},
	}
	for _, lines := range cases {
		totals := CalculateTotals(lines, false)
		require.Equal(t, totals.Subtotal+totals.TaxAmount, totals.Total)
	}
}

func TestCalculateTotalsNegativePassThrough(t *testing.T) {
	lines := []Line{{Quantity: -1, UnitPrice: 100, TaxRate: 19}}
	totals := CalculateTotals(lines, false)
	require.Equal(t, -100.00, totals.Subtotal)
	require.Equal(t, -19.00, totals.TaxAmount)
	require.Equal(t, -119.00, totals.Total)
}

func TestTaxGroupsOrderIndependent(t *testing.T) {
	a := []Line{
		{Quantity: 2, UnitPrice: 100, TaxRate: 19},
		{Quantity: 1, UnitPrice: 50, TaxRate: 7},
		{Quantity: 4, UnitPrice: 25, TaxRate: 19},
	}
	b := []Line{a[2], a[0], a[1]}

	ga := TaxGroups(a)
	gb := TaxGroups(b)
	require.Equal(t, ga, gb)

	require.Len(t, ga, 2)
	require.Equal(t, 7.0, ga[0].Rate)
	require.Equal(t, 3.50, ga[0].Amount)
	require.Equal(t, 19.0, ga[1].Rate)
	require.Equal(t, 57.00, ga[1].Amount)

	// Grouped sum matches the flat computation.
	totals := CalculateTotals(a, false)
	var grouped float64
	for _, g := range ga {
		grouped += g.Amount
	}
	require.InDelta(t, totals.TaxAmount, grouped, 0.005)
}

func TestLineTotal(t *testing.T) {
	require.Equal(t, 26.74, LineTotal(2, 13.37))
	require.Equal(t, 0.00, LineTotal(0, 99))
}
