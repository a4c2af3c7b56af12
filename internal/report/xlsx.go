package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nuclear-hardware/hms/internal/model"
)

// Sheet names in the XLSX export.
const (
	SheetSold    = "Sold Assets"
	SheetSummary = "Summary"
)

// WriteXLSX writes a workbook with the sold assets and a summary sheet.
func WriteXLSX(w io.Writer, rows []model.SoldAsset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSold); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("creating amount style: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetSold, cell, h)
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	f.SetCellStyle(SheetSold, "A1", last+"1", bold)

	for i, r := range rows {
		row := i + 2
		rec := record(r)
		values := []any{
			r.AssetID,
			rec[1],
			rec[2],
			rec[3],
			rec[4],
			r.PurchasePrice.InexactFloat64(),
			r.SalePrice.InexactFloat64(),
			r.Profit().InexactFloat64(),
			rec[8],
			rec[9],
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetSold, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		f.SetCellStyle(SheetSold, fmt.Sprintf("F%d", row), fmt.Sprintf("H%d", row), amount)
	}
	f.SetColWidth(SheetSold, "B", "E", 18)
	f.SetColWidth(SheetSold, "F", "J", 14)

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	s := Summarize(rows)
	summary := [][]any{
		{"Assets Sold", s.Count},
		{"Revenue", s.Revenue.InexactFloat64()},
		{"Cost", s.Cost.InexactFloat64()},
		{"Profit", s.Profit.InexactFloat64()},
	}
	for _, t := range []model.SaleType{model.SaleTypeBulk, model.SaleTypeMixed, model.SaleTypeSingle, model.SaleTypeUnknown} {
		summary = append(summary, []any{t.Label(), s.ByType[t]})
	}
	for i, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	f.SetCellStyle(SheetSummary, "B2", "B4", amount)
	f.SetColWidth(SheetSummary, "A", "A", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
