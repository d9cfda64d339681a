package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/atlas-billing/atlas-billing/internal/reports"
)

// WriteRevenueXLSX writes the monthly revenue as an Excel workbook with one
// sheet per report year.
func WriteRevenueXLSX(w io.Writer, year int, months []reports.MonthlyRevenue) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Umsatz %d", year)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := []string{"Monat", "Jahr", "Umsatz", "Bezahlte Rechnungen"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	var total float64
	var count int
	for row, m := range months {
		name := fmt.Sprintf("%d", m.Month)
		if m.Month >= 1 && m.Month <= 12 {
			name = monthNames[m.Month-1]
		}
		values := []interface{}{name, m.Year, m.Revenue, m.Count}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		moneyCell, _ := excelize.CoordinatesToCellName(3, row+2)
		if err := f.SetCellStyle(sheet, moneyCell, moneyCell, moneyStyle); err != nil {
			return err
		}
		total += m.Revenue
		count += m.Count
	}

	totalRow := len(months) + 2
	totals := []interface{}{"Gesamt", year, total, count}
	for col, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(col+1, totalRow)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	moneyCell, _ := excelize.CoordinatesToCellName(3, totalRow)
	if err := f.SetCellStyle(sheet, moneyCell, moneyCell, moneyStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "D", 20); err != nil {
		return err
	}

	return f.Write(w)
}
