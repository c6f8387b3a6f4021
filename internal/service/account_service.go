package service

import (
	"context"
	"fmt"
	"strings"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccountService manages one ledger: payables or receivables, depending on
// the repository it is built with.
type AccountService interface {
	Kind() string
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error)
	List(ctx context.Context, filter repository.AccountFilter) (*dto.ListResponse[dto.AccountResponse], error)
	Update(ctx context.Context, id, actorID uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	Settle(ctx context.Context, id, actorID uuid.UUID, req dto.SettleAccountRequest) (*dto.AccountResponse, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID) (*dto.AccountResponse, error)
}

type accountService struct {
	tx     repository.TransactionManager
	repo   repository.AccountRepository
	audit  Auditor
	notify Notifier
	cal    Calendar
}

func NewAccountService(
	tx repository.TransactionManager,
	repo repository.AccountRepository,
	audit Auditor,
	notify Notifier,
	cal Calendar,
) AccountService {
	return &accountService{tx: tx, repo: repo, audit: audit, notify: notify, cal: cal}
}

func (s *accountService) Kind() string { return s.repo.Kind() }

func (s *accountService) entity() string { return "account_" + s.repo.Kind() }

func (s *accountService) resp(a *model.Account) dto.AccountResponse {
	return toAccountResponse(s.repo.Kind(), a, s.cal.TodayDate())
}

func (s *accountService) Create(ctx context.Context, actorID uuid.UUID, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, newValidation("description", "is required")
	}
	if !req.Amount.IsPositive() {
		return nil, newValidation("amount", "must be greater than zero")
	}
	due, err := s.cal.Date(req.DueDate)
	if err != nil {
		return nil, newValidation("due_date", "must be YYYY-MM-DD")
	}

	now := s.cal.Now()
	a := &model.Account{
		ID:           uuid.New(),
		BranchID:     req.BranchID,
		Description:  desc,
		Category:     trimmed(req.Category),
		Counterparty: trimmed(req.Counterparty),
		Amount:       req.Amount.Round(2),
		DueDate:      due,
		Status:       model.AccountPending,
		Notes:        trimmed(req.Notes),
		CreatedBy:    actorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.repo.Kind(), err)
	}

	out := s.resp(a)
	s.audit.Record(ctx, AuditRecord{Entity: s.entity(), EntityID: a.ID.String(), Action: model.AuditCreate, ActorID: &actorID, After: out})
	return &out, nil
}

func (s *accountService) Get(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, s.repo.Kind(), id)
	}
	out := s.resp(a)
	return &out, nil
}

func (s *accountService) List(ctx context.Context, filter repository.AccountFilter) (*dto.ListResponse[dto.AccountResponse], error) {
	if filter.Overdue && filter.AsOf.IsZero() {
		filter.AsOf = s.cal.TodayDate()
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return listResponse(toAccountResponses(s.repo.Kind(), rows, s.cal.TodayDate()), total, filter.Page), nil
}

// mutate runs fn against a locked, still pending account and audits the change.
func (s *accountService) mutate(ctx context.Context, id, actorID uuid.UUID, action string, fn func(a *model.Account) error) (*dto.AccountResponse, error) {
	var before, after dto.AccountResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.FindForUpdate(txCtx, id)
		if err != nil {
			return notFoundOr(err, s.repo.Kind(), id)
		}
		switch {
		case a.Settled():
			return newConflict(CodeAccountSettled, fmt.Sprintf("%s %s is already %s", s.repo.Kind(), id, a.Status))
		case a.Status == model.AccountCancelled:
			return newConflict(CodeAccountCancelled, fmt.Sprintf("%s %s is cancelled", s.repo.Kind(), id))
		}
		before = s.resp(a)
		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = s.cal.Now()
		if err := s.repo.Update(txCtx, a); err != nil {
			return err
		}
		after = s.resp(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditRecord{
		Entity: s.entity(), EntityID: id.String(), Action: action, ActorID: &actorID, Before: before, After: after,
	})
	return &after, nil
}

func (s *accountService) Update(ctx context.Context, id, actorID uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	return s.mutate(ctx, id, actorID, model.AuditUpdate, func(a *model.Account) error {
		if req.Description != nil {
			d := strings.TrimSpace(*req.Description)
			if d == "" {
				return newValidation("description", "must not be empty")
			}
			a.Description = d
		}
		if req.Amount != nil {
			if !req.Amount.IsPositive() {
				return newValidation("amount", "must be greater than zero")
			}
			a.Amount = req.Amount.Round(2)
		}
		if req.DueDate != nil {
			due, err := s.cal.Date(*req.DueDate)
			if err != nil {
				return newValidation("due_date", "must be YYYY-MM-DD")
			}
			a.DueDate = due
		}
		if req.BranchID != nil {
			a.BranchID = req.BranchID
		}
		if req.Category != nil {
			a.Category = trimmed(req.Category)
		}
		if req.Counterparty != nil {
			a.Counterparty = trimmed(req.Counterparty)
		}
		if req.Notes != nil {
			a.Notes = trimmed(req.Notes)
		}
		return nil
	})
}

// Settle is one-way. Amount defaults to the face value, date to today.
func (s *accountService) Settle(ctx context.Context, id, actorID uuid.UUID, req dto.SettleAccountRequest) (*dto.AccountResponse, error) {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, newValidation("method", "is required")
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, newValidation("amount", "must be greater than zero")
	}
	on := s.cal.TodayDate()
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		d, err := s.cal.Date(strings.TrimSpace(*req.Date))
		if err != nil {
			return nil, newValidation("date", "must be YYYY-MM-DD")
		}
		on = d
	}

	out, err := s.mutate(ctx, id, actorID, model.AuditStatusChange, func(a *model.Account) error {
		amount := a.Amount
		if req.Amount != nil {
			amount = req.Amount.Round(2)
		}
		a.SettledAmount = &amount
		a.SettledOn = &on
		a.SettleMethod = &method
		a.SettledBy = &actorID
		a.Status = model.AccountPaid
		if s.repo.Kind() == model.AccountReceivableKind {
			a.Status = model.AccountReceived
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("account_id", id.String()).Str("kind", s.repo.Kind()).Msg("account settled")
	s.notify.Notify(ctx, Notification{Event: EventAccountSettled, Data: out})
	return out, nil
}

func (s *accountService) Cancel(ctx context.Context, id, actorID uuid.UUID) (*dto.AccountResponse, error) {
	return s.mutate(ctx, id, actorID, model.AuditStatusChange, func(a *model.Account) error {
		a.Status = model.AccountCancelled
		return nil
	})
}
