package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"boutique/internal/dto"
	"boutique/internal/infra"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClosingService produces immutable period snapshots of approved cash
// sessions and settled accounts.
type ClosingService interface {
	GenerateClosing(ctx context.Context, actorID uuid.UUID, req dto.GenerateClosingRequest) (*dto.ClosingResponse, error)
	GetClosing(ctx context.Context, id uuid.UUID) (*dto.ClosingResponse, error)
	ListClosings(ctx context.Context, filter repository.ClosingFilter) (*dto.ListResponse[dto.ClosingResponse], error)
	CancelClosing(ctx context.Context, id, actorID uuid.UUID, reason string) (*dto.ClosingResponse, error)
	// ExportXLSX and ExportPDF write the rendered report and return a file name for it.
	ExportXLSX(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)
	ExportPDF(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)
}

type closingService struct {
	tx          repository.TransactionManager
	closings    repository.ClosingRepository
	sessions    repository.CashSessionRepository
	payables    repository.AccountRepository
	receivables repository.AccountRepository
	audit       Auditor
	notify      Notifier
	cal         Calendar
	storagePath string
}

func NewClosingService(
	tx repository.TransactionManager,
	closings repository.ClosingRepository,
	sessions repository.CashSessionRepository,
	payables, receivables repository.AccountRepository,
	audit Auditor,
	notify Notifier,
	cal Calendar,
	storagePath string,
) ClosingService {
	return &closingService{
		tx: tx, closings: closings, sessions: sessions, payables: payables, receivables: receivables,
		audit: audit, notify: notify, cal: cal, storagePath: storagePath,
	}
}

// ── Generate ─────────────────────────────────────────────────────────────────

func (s *closingService) GenerateClosing(ctx context.Context, actorID uuid.UUID, req dto.GenerateClosingRequest) (*dto.ClosingResponse, error) {
	start, err := s.cal.Date(req.StartDate)
	if err != nil {
		return nil, newValidation("start_date", "must be YYYY-MM-DD")
	}
	end, err := s.cal.Date(req.EndDate)
	if err != nil {
		return nil, newValidation("end_date", "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, newValidation("end_date", "must not be before start_date")
	}
	branches := normalizeBranches(req.BranchIDs)

	var (
		closing *model.FinancialClosing
		details dto.ClosingDetails
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.closings.LockPeriod(txCtx, start, end); err != nil {
			return err
		}
		exists, err := s.closings.ExistsActive(txCtx, start, end)
		if err != nil {
			return err
		}
		if exists {
			return periodExists(req.StartDate, req.EndDate)
		}

		from, to := s.cal.Range(start, end)
		sessions, err := s.sessions.ApprovedClosedBetween(txCtx, from, to, branches)
		if err != nil {
			return err
		}
		paid, err := s.payables.SettledBetween(txCtx, start, end, branches)
		if err != nil {
			return err
		}
		received, err := s.receivables.SettledBetween(txCtx, start, end, branches)
		if err != nil {
			return err
		}
		openPay, err := s.payables.PendingDueBetween(txCtx, start, end, branches)
		if err != nil {
			return err
		}
		openRec, err := s.receivables.PendingDueBetween(txCtx, start, end, branches)
		if err != nil {
			return err
		}

		summary := model.ClosingSummary{
			Sessions:    summarizeSessions(sessions),
			Payables:    settledBucket(paid),
			Receivables: settledBucket(received),
			OpenItems: model.ClosingOpen{
				Payables:    faceBucket(openPay),
				Receivables: faceBucket(openRec),
			},
		}
		revenue := summary.Sessions.TotalIn.Add(summary.Receivables.Total).Round(2)
		expense := summary.Sessions.TotalOut.Add(summary.Payables.Total).Round(2)

		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		branchJSON, err := json.Marshal(branches)
		if err != nil {
			return err
		}
		closing = &model.FinancialClosing{
			ID:        uuid.New(),
			StartDate: start,
			EndDate:   end,
			Branches:  string(branchJSON),
			Revenue:   revenue,
			Expense:   expense,
			Result:    revenue.Sub(expense).Round(2),
			Summary:   string(summaryJSON),
			Notes:     trimmed(req.Notes),
			CreatedBy: actorID,
			CreatedAt: s.cal.Now(),
		}
		err = s.closings.Create(txCtx, closing)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return periodExists(req.StartDate, req.EndDate)
		}
		if err != nil {
			return err
		}

		today := s.cal.TodayDate()
		details = dto.ClosingDetails{
			Sessions:        make([]dto.SessionResponse, 0, len(sessions)),
			Payables:        toAccountResponses(model.AccountPayableKind, paid, today),
			Receivables:     toAccountResponses(model.AccountReceivableKind, received, today),
			OpenPayables:    toAccountResponses(model.AccountPayableKind, openPay, today),
			OpenReceivables: toAccountResponses(model.AccountReceivableKind, openRec, today),
		}
		for i := range sessions {
			details.Sessions = append(details.Sessions, toSessionResponse(&sessions[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := toClosingResponse(closing)
	if err != nil {
		return nil, err
	}
	log.Info().Str("closing_id", resp.ID).Str("start", resp.StartDate).Str("end", resp.EndDate).
		Str("result", resp.Result.StringFixed(2)).Msg("financial closing generated")

	s.audit.Record(ctx, AuditRecord{
		Entity: "financial_closing", EntityID: resp.ID, Action: model.AuditCreate, ActorID: &actorID, After: resp,
	})
	s.notify.Notify(ctx, Notification{
		Event:      EventClosingGenerated,
		Subject:    fmt.Sprintf("Financial closing %s to %s", resp.StartDate, resp.EndDate),
		Body:       closingMailBody(resp),
		Attachment: s.archivePDF(&resp),
		Data:       resp,
	})
	resp.Details = &details
	return &resp, nil
}

func periodExists(start, end string) error {
	return newConflict(CodeClosingPeriodExists,
		fmt.Sprintf("an active closing already exists for %s to %s", start, end))
}

// archivePDF stores the closing PDF for the finance mail. Failures only cost
// the attachment.
func (s *closingService) archivePDF(c *dto.ClosingResponse) string {
	if s.storagePath == "" {
		return ""
	}
	path, err := infra.SaveClosingPDF(s.report(c), s.storagePath)
	if err != nil {
		log.Warn().Err(err).Str("closing_id", c.ID).Msg("closing pdf archive failed")
		return ""
	}
	return path
}

func normalizeBranches(ids []int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func summarizeSessions(sessions []model.CashSession) model.ClosingSessions {
	out := model.ClosingSessions{
		Count:    len(sessions),
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		Balance:  decimal.Zero,
		IDs:      make([]uuid.UUID, 0, len(sessions)),
	}
	for _, s := range sessions {
		if s.TotalIn != nil {
			out.TotalIn = out.TotalIn.Add(*s.TotalIn)
		}
		if s.TotalOut != nil {
			out.TotalOut = out.TotalOut.Add(*s.TotalOut)
		}
		if s.ComputedBalance != nil {
			out.Balance = out.Balance.Add(*s.ComputedBalance)
		}
		out.IDs = append(out.IDs, s.ID)
	}
	out.TotalIn = out.TotalIn.Round(2)
	out.TotalOut = out.TotalOut.Round(2)
	out.Balance = out.Balance.Round(2)
	return out
}

// settledBucket sums what was actually paid or received.
func settledBucket(accounts []model.Account) model.ClosingBucket {
	total := decimal.Zero
	for _, a := range accounts {
		if a.SettledAmount != nil {
			total = total.Add(*a.SettledAmount)
		} else {
			total = total.Add(a.Amount)
		}
	}
	return model.ClosingBucket{Count: len(accounts), Total: total.Round(2)}
}

func faceBucket(accounts []model.Account) model.ClosingBucket {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Amount)
	}
	return model.ClosingBucket{Count: len(accounts), Total: total.Round(2)}
}

func closingMailBody(c dto.ClosingResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", c.StartDate, c.EndDate)
	fmt.Fprintf(&b, "Approved sessions: %d\n", c.Summary.Sessions.Count)
	fmt.Fprintf(&b, "Revenue: %s\nExpense: %s\nResult: %s\n",
		c.Revenue.StringFixed(2), c.Expense.StringFixed(2), c.Result.StringFixed(2))
	fmt.Fprintf(&b, "Open payables: %d (%s)\nOpen receivables: %d (%s)\n",
		c.Summary.OpenItems.Payables.Count, c.Summary.OpenItems.Payables.Total.StringFixed(2),
		c.Summary.OpenItems.Receivables.Count, c.Summary.OpenItems.Receivables.Total.StringFixed(2))
	return b.String()
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *closingService) GetClosing(ctx context.Context, id uuid.UUID) (*dto.ClosingResponse, error) {
	c, err := s.closings.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "financial closing", id)
	}
	resp, err := toClosingResponse(c)
	if err != nil {
		return nil, fmt.Errorf("decoding closing %s: %w", id, err)
	}
	return &resp, nil
}

func (s *closingService) ListClosings(ctx context.Context, filter repository.ClosingFilter) (*dto.ListResponse[dto.ClosingResponse], error) {
	rows, total, err := s.closings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClosingResponse, 0, len(rows))
	for i := range rows {
		r, err := toClosingResponse(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("decoding closing %s: %w", rows[i].ID, err)
		}
		out = append(out, r)
	}
	return listResponse(out, total, filter.Page), nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────

// CancelClosing flags the closing; the snapshot itself is never rewritten.
func (s *closingService) CancelClosing(ctx context.Context, id, actorID uuid.UUID, reason string) (*dto.ClosingResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidation("reason", "is required")
	}

	var before, after dto.ClosingResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.closings.FindForUpdate(txCtx, id)
		if err != nil {
			return notFoundOr(err, "financial closing", id)
		}
		if c.Cancelled {
			return newConflict(CodeClosingCancelled, "closing is already cancelled")
		}
		if before, err = toClosingResponse(c); err != nil {
			return err
		}
		now := s.cal.Now()
		c.Cancelled = true
		c.CancelledBy = &actorID
		c.CancelledAt = &now
		c.CancelReason = &reason
		if err := s.closings.MarkCancelled(txCtx, c); err != nil {
			return err
		}
		after, err = toClosingResponse(c)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("closing_id", id.String()).Msg("financial closing cancelled")
	s.audit.Record(ctx, AuditRecord{
		Entity: "financial_closing", EntityID: id.String(), Action: model.AuditStatusChange,
		ActorID: &actorID, Before: before, After: after,
	})
	s.notify.Notify(ctx, Notification{Event: EventClosingCancelled, Data: after})
	return &after, nil
}

// ── Export ───────────────────────────────────────────────────────────────────

func (s *closingService) ExportXLSX(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	c, err := s.GetClosing(ctx, id)
	if err != nil {
		return "", err
	}
	r := s.report(c)
	if err := infra.WriteClosingXLSX(w, r); err != nil {
		return "", err
	}
	return r.FileStem() + ".xlsx", nil
}

func (s *closingService) ExportPDF(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	c, err := s.GetClosing(ctx, id)
	if err != nil {
		return "", err
	}
	r := s.report(c)
	if err := infra.WriteClosingPDF(w, r); err != nil {
		return "", err
	}
	return r.FileStem() + ".pdf", nil
}

func (s *closingService) report(c *dto.ClosingResponse) *infra.ClosingReport {
	created, _ := time.Parse(time.RFC3339, c.CreatedAt)
	sum := c.Summary
	r := &infra.ClosingReport{
		ID:          c.ID,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Branches:    c.BranchIDs,
		Revenue:     c.Revenue,
		Expense:     c.Expense,
		Result:      c.Result,
		Cancelled:   c.Cancelled,
		CreatedAt:   created,
		GeneratedAt: s.cal.Now(),
		Lines: []infra.ReportLine{
			{Section: "sessions", Label: "Cash in (approved sessions)", Count: sum.Sessions.Count, Amount: sum.Sessions.TotalIn},
			{Section: "sessions", Label: "Cash out (approved sessions)", Count: sum.Sessions.Count, Amount: sum.Sessions.TotalOut},
			{Section: "receivables", Label: "Receivables received", Count: sum.Receivables.Count, Amount: sum.Receivables.Total},
			{Section: "payables", Label: "Payables paid", Count: sum.Payables.Count, Amount: sum.Payables.Total},
			{Section: "open_receivables", Label: "Receivables still pending", Count: sum.OpenItems.Receivables.Count, Amount: sum.OpenItems.Receivables.Total},
			{Section: "open_payables", Label: "Payables still pending", Count: sum.OpenItems.Payables.Count, Amount: sum.OpenItems.Payables.Total},
		},
	}
	if c.Notes != nil {
		r.Notes = *c.Notes
	}
	for _, id := range sum.Sessions.IDs {
		r.SessionIDs = append(r.SessionIDs, id.String())
	}
	return r
}
