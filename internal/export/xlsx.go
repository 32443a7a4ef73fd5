// Package export renders expenses as downloadable workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/core"
)

const (
	ExpensesSheet = "Expenses"
	SummarySheet  = "Summary"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes a workbook with one row per expense and a per-category
// summary sheet. Amounts are written as numbers with two decimals.
func WriteXLSX(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, ExpensesSheet, []any{"ID", "Date", "Title", "Category", "Amount", "Description"}, expenseRows(expenses)); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, []any{"Category", "Total"}, summaryRows(expenses)); err != nil {
		return err
	}

	f.SetColWidth(ExpensesSheet, "B", "B", 18)
	f.SetColWidth(ExpensesSheet, "C", "C", 30)
	f.SetColWidth(ExpensesSheet, "D", "D", 16)
	f.SetColWidth(ExpensesSheet, "F", "F", 40)
	f.SetColWidth(SummarySheet, "A", "A", 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func expenseRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []any{
			e.ID,
			e.Date.Format("2006-01-02 15:04"),
			e.Title,
			string(e.Category),
			e.Amount.Float64(),
			e.Description,
		})
	}
	return rows
}

func summaryRows(expenses []core.Expense) [][]any {
	totals := core.GroupByCategory(expenses)
	rows := make([][]any, 0, len(totals)+1)
	for _, t := range totals {
		rows = append(rows, []any{string(t.Category), t.Total.Float64()})
	}
	rows = append(rows, []any{"Total", core.Sum(expenses).Float64()})
	return rows
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
