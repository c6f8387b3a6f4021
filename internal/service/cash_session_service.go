package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CashSessionService interface {
	OpenSession(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, id, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionReportResponse, error)
	ListSessions(ctx context.Context, filter repository.SessionFilter) (*dto.ListResponse[dto.SessionResponse], error)
	CurrentSession(ctx context.Context, branchID int) (*dto.SessionReportResponse, error)

	CreateEntry(ctx context.Context, actorID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error)
	UpdateEntry(ctx context.Context, id, actorID uuid.UUID, req dto.UpdateEntryRequest) (*dto.EntryResponse, error)
	DeleteEntry(ctx context.Context, id, actorID uuid.UUID) error
	ListEntries(ctx context.Context, filter repository.EntryFilter) (*dto.ListResponse[dto.EntryResponse], error)
	EntrySummary(ctx context.Context, filter repository.EntryFilter) (*dto.EntrySummaryResponse, error)
}

type cashSessionService struct {
	tx     repository.TransactionManager
	repo   repository.CashSessionRepository
	audit  Auditor
	notify Notifier
	cal    Calendar
}

func NewCashSessionService(
	tx repository.TransactionManager,
	repo repository.CashSessionRepository,
	audit Auditor,
	notify Notifier,
	cal Calendar,
) CashSessionService {
	return &cashSessionService{tx: tx, repo: repo, audit: audit, notify: notify, cal: cal}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// One open session per branch and business day. A session still pending
// approval does not block a new one.

func (s *cashSessionService) OpenSession(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if req.BranchID < 1 {
		return nil, newValidation("branch_id", "is required")
	}
	if req.OpeningAmount.IsNegative() {
		return nil, newValidation("opening_amount", "must not be negative")
	}

	var sess *model.CashSession
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockBranch(txCtx, req.BranchID); err != nil {
			return err
		}
		today := s.cal.Today()
		existing, err := s.repo.FindOpenSession(txCtx, req.BranchID, today)
		if err == nil {
			return newConflict(CodeSessionAlreadyOpen,
				fmt.Sprintf("branch %d already has open session %s for %s", req.BranchID, existing.ID, today))
		}
		if !isNotFound(err) {
			return err
		}

		now := s.cal.Now()
		sess = &model.CashSession{
			ID:            uuid.New(),
			BranchID:      req.BranchID,
			BusinessDate:  today,
			OpenerID:      operatorID,
			OpeningAmount: req.OpeningAmount.Round(2),
			Status:        model.SessionOpen,
			OpeningNotes:  trimmed(req.Notes),
			OpenedAt:      now,
			UpdatedAt:     now,
		}
		err = s.repo.CreateSession(txCtx, sess)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newConflict(CodeSessionAlreadyOpen, fmt.Sprintf("branch %d already has an open session", req.BranchID))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sess.ID.String()).Int("branch_id", sess.BranchID).
		Str("business_date", sess.BusinessDate).Msg("cash session opened")
	resp := toSessionResponse(sess)
	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_session", EntityID: sess.ID.String(), Action: model.AuditCreate, ActorID: &operatorID, After: resp,
	})
	s.notify.Notify(ctx, Notification{Event: EventSessionOpened, Data: resp})
	return &resp, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *cashSessionService) CloseSession(ctx context.Context, id, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.DeclaredAmount != nil && req.DeclaredAmount.IsNegative() {
		return nil, newValidation("declared_amount", "must not be negative")
	}

	var before, after dto.SessionResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.repo.FindSessionForUpdate(txCtx, id)
		if err != nil {
			return notFoundOr(err, "cash session", id)
		}
		if sess.Status != model.SessionOpen {
			return newConflict(CodeSessionNotOpen, "session is "+sess.Status)
		}
		before = toSessionResponse(sess)

		totals, err := recompute(txCtx, s.repo, sess)
		if err != nil {
			return err
		}
		now := s.cal.Now()
		if req.DeclaredAmount != nil {
			d := req.DeclaredAmount.Round(2)
			sess.DeclaredAmount = &d
		}
		freezeTotals(sess, totals)
		sess.Status = model.SessionPendingApproval
		sess.CloserID = &operatorID
		sess.ClosedAt = &now
		sess.ClosingNotes = trimmed(req.Notes)
		sess.UpdatedAt = now
		if err := s.repo.UpdateSession(txCtx, sess); err != nil {
			return err
		}
		after = toSessionResponse(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_session", EntityID: id.String(), Action: model.AuditStatusChange,
		ActorID: &operatorID, Before: before, After: after,
	})
	log.Info().Str("session_id", id.String()).Int("branch_id", after.BranchID).Msg("cash session closed")
	s.notify.Notify(ctx, Notification{Event: EventSessionClosed, Data: after})
	return &after, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *cashSessionService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cash session", id)
	}
	return sessionReport(ctx, s.repo, sess)
}

func (s *cashSessionService) ListSessions(ctx context.Context, filter repository.SessionFilter) (*dto.ListResponse[dto.SessionResponse], error) {
	rows, total, err := s.repo.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toSessionResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}

func (s *cashSessionService) CurrentSession(ctx context.Context, branchID int) (*dto.SessionReportResponse, error) {
	open, err := s.repo.FindOpenSession(ctx, branchID, s.cal.Today())
	if isNotFound(err) {
		return nil, &NotFoundError{Entity: "open cash session", ID: fmt.Sprintf("branch %d", branchID)}
	}
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, open.ID)
}

// ── Entries ───────────────────────────────────────────────────────────────────

func (s *cashSessionService) CreateEntry(ctx context.Context, actorID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	entry, err := newEntry(actorID, req)
	if err != nil {
		return nil, err
	}
	explicit, err := parseOptionalUUID("session_id", req.SessionID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.targetSession(txCtx, entry.BranchID, explicit)
		if err != nil {
			return err
		}
		if sess != nil {
			entry.SessionID = &sess.ID
		}
		now := s.cal.Now()
		entry.CreatedAt, entry.UpdatedAt = now, now
		return s.repo.CreateEntry(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	resp := toEntryResponse(entry)
	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_entry", EntityID: entry.ID.String(), Action: model.AuditCreate, ActorID: &actorID, After: resp,
	})
	s.notify.Notify(ctx, Notification{Event: EventEntryChanged, Data: resp})
	return &resp, nil
}

// targetSession picks the session a new entry belongs to and locks it:
// the explicitly named one (open or pending review, same branch), otherwise
// today's open session for the branch, otherwise none.
func (s *cashSessionService) targetSession(ctx context.Context, branchID int, explicit *uuid.UUID) (*model.CashSession, error) {
	if explicit != nil {
		sess, err := s.repo.FindSessionForUpdate(ctx, *explicit)
		if err != nil {
			return nil, notFoundOr(err, "cash session", *explicit)
		}
		if sess.Status == model.SessionApproved {
			return nil, newConflict(CodeSessionApproved, "session is approved; entries are immutable")
		}
		if sess.BranchID != branchID {
			return nil, newConflict(CodeSessionBranch,
				fmt.Sprintf("session %s belongs to branch %d", sess.ID, sess.BranchID))
		}
		return sess, nil
	}

	open, err := s.repo.FindOpenSession(ctx, branchID, s.cal.Today())
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.FindSessionForUpdate(ctx, open.ID)
	if err != nil {
		return nil, err
	}
	// a close may have committed between the lookup and the lock
	if sess.Status != model.SessionOpen {
		return nil, nil
	}
	return sess, nil
}

func newEntry(actorID uuid.UUID, req dto.CreateEntryRequest) (*model.CashEntry, error) {
	if req.BranchID < 1 {
		return nil, newValidation("branch_id", "is required")
	}
	if req.Type != model.EntryIn && req.Type != model.EntryOut {
		return nil, newValidation("type", "must be in or out")
	}
	if !req.Amount.IsPositive() {
		return nil, newValidation("amount", "must be greater than zero")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, newValidation("payment_method", "is required")
	}
	origin := req.Origin
	if origin == "" {
		origin = model.OriginStore
	}
	if err := validOrigin(origin); err != nil {
		return nil, err
	}
	installments := req.Installments
	if installments < 1 {
		installments = 1
	}

	e := &model.CashEntry{
		ID:            uuid.New(),
		BranchID:      req.BranchID,
		Type:          req.Type,
		Amount:        req.Amount.Round(2),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Installments:  installments,
		Description:   strings.TrimSpace(req.Description),
		Origin:        origin,
		CreatedBy:     actorID,
	}
	var err error
	if e.OrderID, err = parseOptionalUUID("order_id", req.OrderID); err != nil {
		return nil, err
	}
	if e.VariantID, err = parseOptionalUUID("variant_id", req.VariantID); err != nil {
		return nil, err
	}
	if e.CustomerID, err = parseOptionalUUID("customer_id", req.CustomerID); err != nil {
		return nil, err
	}
	if e.SellerID, err = parseOptionalUUID("seller_id", req.SellerID); err != nil {
		return nil, err
	}
	return e, nil
}

func validOrigin(o string) error {
	switch o {
	case model.OriginStore, model.OriginEcommerce, model.OriginAdjustment:
		return nil
	}
	return newValidation("origin", "must be store, ecommerce or adjustment")
}

// lockEntry loads an entry and locks its owning session; approved sessions
// reject any change.
func (s *cashSessionService) lockEntry(ctx context.Context, id uuid.UUID) (*model.CashEntry, error) {
	e, err := s.repo.FindEntryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cash entry", id)
	}
	if e.SessionID == nil {
		return e, nil
	}
	sess, err := s.repo.FindSessionForUpdate(ctx, *e.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionApproved {
		return nil, newConflict(CodeSessionApproved, "session is approved; entries are immutable")
	}
	return e, nil
}

func (s *cashSessionService) UpdateEntry(ctx context.Context, id, actorID uuid.UUID, req dto.UpdateEntryRequest) (*dto.EntryResponse, error) {
	var before, after dto.EntryResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := s.lockEntry(txCtx, id)
		if err != nil {
			return err
		}
		before = toEntryResponse(e)

		if req.Type != nil {
			if *req.Type != model.EntryIn && *req.Type != model.EntryOut {
				return newValidation("type", "must be in or out")
			}
			e.Type = *req.Type
		}
		if req.Amount != nil {
			if !req.Amount.IsPositive() {
				return newValidation("amount", "must be greater than zero")
			}
			e.Amount = req.Amount.Round(2)
		}
		if req.PaymentMethod != nil {
			if strings.TrimSpace(*req.PaymentMethod) == "" {
				return newValidation("payment_method", "must not be empty")
			}
			e.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}
		if req.Installments != nil {
			if *req.Installments < 1 {
				return newValidation("installments", "must be at least 1")
			}
			e.Installments = *req.Installments
		}
		if req.Description != nil {
			e.Description = strings.TrimSpace(*req.Description)
		}
		if req.Origin != nil {
			if err := validOrigin(*req.Origin); err != nil {
				return err
			}
			e.Origin = *req.Origin
		}
		e.UpdatedAt = s.cal.Now()
		if err := s.repo.UpdateEntry(txCtx, e); err != nil {
			return err
		}
		after = toEntryResponse(e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_entry", EntityID: id.String(), Action: model.AuditUpdate,
		ActorID: &actorID, Before: before, After: after,
	})
	s.notify.Notify(ctx, Notification{Event: EventEntryChanged, Data: after})
	return &after, nil
}

func (s *cashSessionService) DeleteEntry(ctx context.Context, id, actorID uuid.UUID) error {
	var before dto.EntryResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := s.lockEntry(txCtx, id)
		if err != nil {
			return err
		}
		before = toEntryResponse(e)
		return s.repo.DeleteEntry(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditRecord{
		Entity: "cash_entry", EntityID: id.String(), Action: model.AuditDelete, ActorID: &actorID, Before: before,
	})
	s.notify.Notify(ctx, Notification{Event: EventEntryChanged, Data: map[string]string{"id": id.String(), "deleted": "true"}})
	return nil
}

func (s *cashSessionService) ListEntries(ctx context.Context, filter repository.EntryFilter) (*dto.ListResponse[dto.EntryResponse], error) {
	rows, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toEntryResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}

func (s *cashSessionService) EntrySummary(ctx context.Context, filter repository.EntryFilter) (*dto.EntrySummaryResponse, error) {
	t, err := s.repo.SumEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.repo.BreakdownEntries(ctx, filter, repository.GroupByPaymentMethod)
	if err != nil {
		return nil, err
	}
	byOrigin, err := s.repo.BreakdownEntries(ctx, filter, repository.GroupByOrigin)
	if err != nil {
		return nil, err
	}
	return &dto.EntrySummaryResponse{
		TotalIn:         t.TotalIn.Round(2),
		TotalOut:        t.TotalOut.Round(2),
		Balance:         t.TotalIn.Sub(t.TotalOut).Round(2),
		Count:           t.Count,
		ByPaymentMethod: toBreakdown(byMethod),
		ByOrigin:        toBreakdown(byOrigin),
	}, nil
}
