package infra

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	sessionsSheet = "Sessions"
)

// WriteClosingXLSX renders the report as a two-sheet workbook into w.
func WriteClosingXLSX(w io.Writer, r *ClosingReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := [][]interface{}{
		{"Closing", r.ID},
		{"Start date", r.StartDate},
		{"End date", r.EndDate},
		{"Branches", r.branchLabel()},
		{"Cancelled", r.Cancelled},
		{"Revenue", r.Revenue.InexactFloat64()},
		{"Expense", r.Expense.InexactFloat64()},
		{"Result", r.Result.InexactFloat64()},
	}
	row := 1
	for _, h := range header {
		if err := f.SetSheetRow(summarySheet, cell("A", row), &h); err != nil {
			return err
		}
		row++
	}
	row++

	if err := f.SetSheetRow(summarySheet, cell("A", row), &[]interface{}{"Section", "Item", "Count", "Amount"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, cell("A", row), cell("D", row), bold); err != nil {
		return err
	}
	for _, l := range r.Lines {
		row++
		values := []interface{}{l.Section, l.Label, l.Count, l.Amount.InexactFloat64()}
		if err := f.SetSheetRow(summarySheet, cell("A", row), &values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "B", 28)

	if _, err := f.NewSheet(sessionsSheet); err != nil {
		return err
	}
	_ = f.SetCellValue(sessionsSheet, "A1", "Session id")
	_ = f.SetCellStyle(sessionsSheet, "A1", "A1", bold)
	for i, id := range r.SessionIDs {
		if err := f.SetCellValue(sessionsSheet, cell("A", i+2), id); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sessionsSheet, "A", "A", 40)

	return f.Write(w)
}

func cell(col string, row int) string { return fmt.Sprintf("%s%d", col, row) }
