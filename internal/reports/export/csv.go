// Package export renders revenue reports into downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/atlas-billing/atlas-billing/internal/reports"
)

var monthNames = []string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// WriteRevenueCSV writes the monthly revenue as semicolon separated values,
// the delimiter German spreadsheet locales expect.
func WriteRevenueCSV(w io.Writer, year int, months []reports.MonthlyRevenue) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write([]string{"Monat", "Jahr", "Umsatz", "Bezahlte Rechnungen"}); err != nil {
		return err
	}

	var total float64
	var count int
	for _, m := range months {
		name := fmt.Sprintf("%d", m.Month)
		if m.Month >= 1 && m.Month <= 12 {
			name = monthNames[m.Month-1]
		}
		row := []string{
			name,
			fmt.Sprintf("%d", m.Year),
			formatAmount(m.Revenue),
			fmt.Sprintf("%d", m.Count),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		total += m.Revenue
		count += m.Count
	}

	if err := cw.Write([]string{"Gesamt", fmt.Sprintf("%d", year), formatAmount(total), fmt.Sprintf("%d", count)}); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// formatAmount renders the amount with a decimal comma.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	out := []rune(s)
	for i, r := range out {
		if r == '.' {
			out[i] = ','
		}
	}
	return string(out)
}
