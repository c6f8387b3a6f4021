package infra

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ClosingReport is the printable view of a financial closing, shared by the
// PDF and XLSX renderers.
type ClosingReport struct {
	ID          string
	StartDate   string
	EndDate     string
	Branches    []int
	Revenue     decimal.Decimal
	Expense     decimal.Decimal
	Result      decimal.Decimal
	Notes       string
	Cancelled   bool
	CreatedAt   time.Time
	GeneratedAt time.Time
	Lines       []ReportLine
	SessionIDs  []string
}

// ReportLine is one row of the summary table.
type ReportLine struct {
	Section string // sessions | payables | receivables | open_payables | open_receivables
	Label   string
	Count   int
	Amount  decimal.Decimal
}

func (r *ClosingReport) branchLabel() string {
	if len(r.Branches) == 0 {
		return "all"
	}
	ids := make([]string, len(r.Branches))
	for i, b := range r.Branches {
		ids[i] = strconv.Itoa(b)
	}
	return strings.Join(ids, ", ")
}

// FileStem is the base name used for exported and archived reports.
func (r *ClosingReport) FileStem() string {
	return "closing_" + r.StartDate + "_" + r.EndDate
}
