package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-billing/atlas-billing/internal/reports"
)

func TestWriteRevenueCSV(t *testing.T) {
	months := []reports.MonthlyRevenue{
		{Year: 2026, Month: 1, Revenue: 1000.5, Count: 2},
		{Year: 2026, Month: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRevenueCSV(&buf, 2026, months))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Monat;Jahr;Umsatz;Bezahlte Rechnungen", lines[0])
	require.Equal(t, "Januar;2026;1000,50;2", lines[1])
	require.Equal(t, "Februar;2026;0,00;0", lines[2])
	require.Equal(t, "Gesamt;2026;1000,50;2", lines[3])
}

func TestWriteRevenueXLSX(t *testing.T) {
	months := []reports.MonthlyRevenue{
		{Year: 2026, Month: 1, Revenue: 99.99, Count: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRevenueXLSX(&buf, 2026, months))

	// XLSX files are zip archives.
	require.Greater(t, buf.Len(), 4)
	require.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
