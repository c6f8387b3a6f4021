package infra

// pdf.go: closing report rendering with go-pdf/fpdf.
// A4 portrait: header with period and branches, result block, summary table,
// contributing session ids.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// WriteClosingPDF renders the report into w.
func WriteClosingPDF(w io.Writer, r *ClosingReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "Financial closing", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Period %s to %s", r.StartDate, r.EndDate), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Branches: "+r.branchLabel(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Closing "+r.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Created "+r.CreatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if r.Cancelled {
		pdf.SetTextColor(180, 0, 0)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, "CANCELLED", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)

	// ── Result ───────────────────────────────────────────────────────────────
	half := contentW / 2
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Revenue", r.Revenue.StringFixed(2)},
		{"Expense", r.Expense.StringFixed(2)},
	} {
		pdf.CellFormat(half, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(half, 7, "Result", "T", 0, "L", false, 0, "")
	pdf.CellFormat(half, 7, r.Result.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	// ── Summary table ────────────────────────────────────────────────────────
	col1 := contentW * 0.55
	col2 := contentW * 0.15
	col3 := contentW * 0.30
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Count", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range r.Lines {
		pdf.CellFormat(col1, 5, l.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%d", l.Count), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, l.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if r.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, "Notes: "+r.Notes, "", "L", false)
	}

	if len(r.SessionIDs) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "Approved sessions", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 7)
		for _, id := range r.SessionIDs {
			pdf.CellFormat(contentW, 4, id, "", 1, "L", false, 0, "")
		}
	}

	pdf.SetY(-15)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04:05 MST"), "", 0, "R", false, 0, "")

	return pdf.Output(w)
}

// SaveClosingPDF writes the report under storagePath and returns the file path.
// Used when the report is mailed as an attachment.
func SaveClosingPDF(r *ClosingReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(storagePath, r.FileStem()+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	defer f.Close()
	if err := WriteClosingPDF(f, r); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
