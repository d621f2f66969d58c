package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Financials"

var header = []any{"Cycle", "Field", "Crop", "Start date", "Revenue (VND)", "Cost (VND)", "Profit (VND)", "Yield (kg)"}

// WriteXLSX writes rows and a totals line as an Excel workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("report: name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: row %d: %w", i, err)
		}
		values := []any{r.CycleID, r.FieldID, r.CropName, r.StartDate, r.Revenue, r.Cost, r.Profit, r.YieldKg}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("report: write row %d: %w", i, err)
		}
	}

	t := Sum(rows)
	last := len(rows) + 2
	totals := []any{"Total", "", "", "", t.Revenue, t.Cost, t.Profit, t.YieldKg}
	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", last), &totals); err != nil {
		return fmt.Errorf("report: write totals: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", bold); err != nil {
		return fmt.Errorf("report: style header: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "E2", fmt.Sprintf("G%d", last), money); err != nil {
		return fmt.Errorf("report: style amounts: %w", err)
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", last), fmt.Sprintf("A%d", last), bold); err != nil {
		return fmt.Errorf("report: style totals: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}
