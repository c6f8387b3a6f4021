package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReconciliationService is the finance side of the cash session lifecycle.
type ReconciliationService interface {
	ListPending(ctx context.Context, filter repository.SessionFilter) (*dto.ListResponse[dto.SessionResponse], error)
	ReviewDetail(ctx context.Context, id uuid.UUID) (*dto.SessionReportResponse, error)
	ApproveSession(ctx context.Context, id, reviewerID uuid.UUID, req dto.ApproveSessionRequest) (*dto.SessionResponse, error)
	// RejectSession reopens a pending session. It fails with ConflictError
	// session_already_open when the branch already has another open session
	// for that business day.
	RejectSession(ctx context.Context, id, reviewerID uuid.UUID, reason string) (*dto.SessionResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

type reconciliationService struct {
	tx          repository.TransactionManager
	sessions    repository.CashSessionRepository
	payables    repository.AccountRepository
	receivables repository.AccountRepository
	audit       Auditor
	notify      Notifier
	cal         Calendar
	windowDays  int
}

func NewReconciliationService(
	tx repository.TransactionManager,
	sessions repository.CashSessionRepository,
	payables, receivables repository.AccountRepository,
	audit Auditor,
	notify Notifier,
	cal Calendar,
	windowDays int,
) ReconciliationService {
	if windowDays < 1 {
		windowDays = 7
	}
	return &reconciliationService{
		tx: tx, sessions: sessions, payables: payables, receivables: receivables,
		audit: audit, notify: notify, cal: cal, windowDays: windowDays,
	}
}

func (s *reconciliationService) ListPending(ctx context.Context, filter repository.SessionFilter) (*dto.ListResponse[dto.SessionResponse], error) {
	filter.Status = model.SessionPendingApproval
	rows, total, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toSessionResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}

func (s *reconciliationService) ReviewDetail(ctx context.Context, id uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.sessions.FindSessionByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cash session", id)
	}
	return sessionReport(ctx, s.sessions, sess)
}

// ── Approve / reject ─────────────────────────────────────────────────────────

func (s *reconciliationService) ApproveSession(ctx context.Context, id, reviewerID uuid.UUID, req dto.ApproveSessionRequest) (*dto.SessionResponse, error) {
	var before, after dto.SessionResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.pending(txCtx, id)
		if err != nil {
			return err
		}
		before = toSessionResponse(sess)

		// Entries may have been corrected while the session waited for review.
		totals, err := recompute(txCtx, s.sessions, sess)
		if err != nil {
			return err
		}
		freezeTotals(sess, totals)
		now := s.cal.Now()
		sess.Status = model.SessionApproved
		sess.ApproverID = &reviewerID
		sess.ApprovedAt = &now
		sess.ApprovalNotes = trimmed(req.Notes)
		sess.UpdatedAt = now
		if err := s.sessions.UpdateSession(txCtx, sess); err != nil {
			return err
		}
		after = toSessionResponse(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", id.String()).Int("branch_id", after.BranchID).Msg("cash session approved")
	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_session", EntityID: id.String(), Action: model.AuditStatusChange,
		ActorID: &reviewerID, Before: before, After: after,
	})
	s.notify.Notify(ctx, Notification{
		Event:   EventSessionApproved,
		Subject: fmt.Sprintf("Cash session approved: branch %d, %s", after.BranchID, after.BusinessDate),
		Body:    sessionMailBody(after, ""),
		Data:    after,
	})
	return &after, nil
}

func (s *reconciliationService) RejectSession(ctx context.Context, id, reviewerID uuid.UUID, reason string) (*dto.SessionResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidation("reason", "is required")
	}

	var before, after dto.SessionResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.pending(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.sessions.LockBranch(txCtx, sess.BranchID); err != nil {
			return err
		}
		other, err := s.sessions.FindOpenSession(txCtx, sess.BranchID, sess.BusinessDate)
		if err == nil && other.ID != sess.ID {
			return newConflict(CodeSessionAlreadyOpen,
				fmt.Sprintf("branch %d already has open session %s for %s", sess.BranchID, other.ID, sess.BusinessDate))
		}
		if err != nil && !isNotFound(err) {
			return err
		}
		before = toSessionResponse(sess)

		clearClosing(sess)
		notes := rejectionPrefix + reason
		sess.ClosingNotes = &notes
		sess.Status = model.SessionOpen
		sess.UpdatedAt = s.cal.Now()
		if err := s.sessions.UpdateSession(txCtx, sess); err != nil {
			return err
		}
		after = toSessionResponse(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", id.String()).Int("branch_id", after.BranchID).Msg("cash session rejected")
	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_session", EntityID: id.String(), Action: model.AuditStatusChange,
		ActorID: &reviewerID, Before: before, After: after,
	})
	s.notify.Notify(ctx, Notification{
		Event:   EventSessionRejected,
		Subject: fmt.Sprintf("Cash session rejected: branch %d, %s", after.BranchID, after.BusinessDate),
		Body:    sessionMailBody(after, reason),
		Data:    after,
	})
	return &after, nil
}

func (s *reconciliationService) pending(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	sess, err := s.sessions.FindSessionForUpdate(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cash session", id)
	}
	if sess.Status != model.SessionPendingApproval {
		return nil, newConflict(CodeSessionNotPending, "session is "+sess.Status)
	}
	return sess, nil
}

func sessionMailBody(s dto.SessionResponse, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\nBranch: %d\nBusiness date: %s\nOpening amount: %s\n",
		s.ID, s.BranchID, s.BusinessDate, s.OpeningAmount.StringFixed(2))
	if s.TotalIn != nil && s.TotalOut != nil && s.ComputedBalance != nil {
		fmt.Fprintf(&b, "Total in: %s\nTotal out: %s\nBalance: %s\n",
			s.TotalIn.StringFixed(2), s.TotalOut.StringFixed(2), s.ComputedBalance.StringFixed(2))
	}
	if s.Difference != nil {
		fmt.Fprintf(&b, "Difference: %s\n", s.Difference.StringFixed(2))
	}
	if reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", reason)
	}
	return b.String()
}

// ── Dashboard ────────────────────────────────────────────────────────────────

func (s *reconciliationService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	openCount, err := s.sessions.CountSessions(ctx, model.SessionOpen)
	if err != nil {
		return nil, err
	}
	pendingCount, err := s.sessions.CountSessions(ctx, model.SessionPendingApproval)
	if err != nil {
		return nil, err
	}

	today := s.cal.TodayDate()
	windowEnd := today.AddDate(0, 0, s.windowDays)
	yesterday := today.AddDate(0, 0, -1)

	dueSoon, err := s.payables.AggregatePending(ctx, &today, &windowEnd)
	if err != nil {
		return nil, err
	}
	overdue, err := s.payables.AggregatePending(ctx, nil, &yesterday)
	if err != nil {
		return nil, err
	}
	receivable, err := s.receivables.AggregatePending(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.sessions.CountByBranchStatus(ctx, s.cal.Today())
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{
		OpenSessions:       openCount,
		PendingSessions:    pendingCount,
		PayablesDueSoon:    toAggregate(dueSoon),
		PayablesOverdue:    toAggregate(overdue),
		ReceivablesPending: toAggregate(receivable),
		TodayByBranch:      byBranch(rows),
		GeneratedAt:        s.cal.Now().Format(time.RFC3339),
	}, nil
}

func toAggregate(a repository.AccountAggregate) dto.AggregateResponse {
	return dto.AggregateResponse{Count: a.Count, Total: a.Total.Round(2)}
}

func byBranch(rows []repository.BranchStatusCount) []dto.BranchSessionsResponse {
	idx := map[int]int{}
	out := []dto.BranchSessionsResponse{}
	for _, r := range rows {
		i, ok := idx[r.BranchID]
		if !ok {
			i = len(out)
			idx[r.BranchID] = i
			out = append(out, dto.BranchSessionsResponse{BranchID: r.BranchID, Counts: map[string]int64{}})
		}
		out[i].Counts[r.Status] += r.Count
	}
	sort.Slice(out, func(a, b int) bool { return out[a].BranchID < out[b].BranchID })
	return out
}
