// Package billing holds the financial calculation and document lifecycle
// rules shared by invoices and quotes.
package billing

import (
	"math"
	"sort"
)

// Line is the priced portion of a document line item.
type Line struct {
	Quantity  float64
	UnitPrice float64
	TaxRate   float64
}

// Totals are the stored financial totals of a document.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// TaxGroup is one display row of the per-rate tax breakdown.
type TaxGroup struct {
	Rate   float64
	Base   float64
	Amount float64
}

// Round2 rounds to two decimal places, the stored currency precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotal computes the net amount of a single line.
func LineTotal(quantity, unitPrice float64) float64 {
	return Round2(quantity * unitPrice)
}

// CalculateTotals computes subtotal, tax amount and grand total over the
// given lines. When smallBusiness is set, tax is suppressed entirely and
// the per-line rates are ignored. Subtotal and tax are each rounded once,
// so total == subtotal + tax holds exactly in the stored values. Negative
// quantities or prices are not rejected here; they combine arithmetically.
func CalculateTotals(lines []Line, smallBusiness bool) Totals {
	var subtotal, tax float64
	for _, l := range lines {
		net := l.Quantity * l.UnitPrice
		subtotal += net
		if !smallBusiness {
			tax += net * l.TaxRate / 100
		}
	}
	t := Totals{
		Subtotal:  Round2(subtotal),
		TaxAmount: Round2(tax),
	}
	t.Total = t.Subtotal + t.TaxAmount
	return t
}

// TaxGroups returns the tax breakdown grouped by rate, ordered by rate
// ascending. Amounts are rounded per group for display only; the stored
// tax amount comes from CalculateTotals, which rounds once overall.
func TaxGroups(lines []Line) []TaxGroup {
	byRate := make(map[float64]*TaxGroup)
	for _, l := range lines {
		net := l.Quantity * l.UnitPrice
		g, ok := byRate[l.TaxRate]
		if !ok {
			g = &TaxGroup{Rate: l.TaxRate}
			byRate[l.TaxRate] = g
		}
		g.Base += net
		g.Amount += net * l.TaxRate / 100
	}

	groups := make([]TaxGroup, 0, len(byRate))
	for _, g := range byRate {
		groups = append(groups, TaxGroup{Rate: g.Rate, Base: Round2(g.Base), Amount: Round2(g.Amount)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Rate < groups[j].Rate })
	return groups
}
