package dto

import (
	"encoding/json"

	"boutique/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Accounts payable / receivable ───────────────────────────────────────────

type CreateAccountRequest struct {
	BranchID     *int            `json:"branch_id"    validate:"omitempty,min=1"`
	Description  string          `json:"description"  validate:"required,max=255"`
	Category     *string         `json:"category"     validate:"omitempty,max=60"`
	Counterparty *string         `json:"counterparty" validate:"omitempty,max=120"`
	Amount       decimal.Decimal `json:"amount"       validate:"gt=0"`
	DueDate      string          `json:"due_date"     validate:"required,datetime=2006-01-02"`
	Notes        *string         `json:"notes"`
}

type UpdateAccountRequest struct {
	BranchID     *int             `json:"branch_id"    validate:"omitempty,min=1"`
	Description  *string          `json:"description"  validate:"omitempty,max=255"`
	Category     *string          `json:"category"     validate:"omitempty,max=60"`
	Counterparty *string          `json:"counterparty" validate:"omitempty,max=120"`
	Amount       *decimal.Decimal `json:"amount"`
	DueDate      *string          `json:"due_date"     validate:"omitempty,datetime=2006-01-02"`
	Notes        *string          `json:"notes"`
}

type SettleAccountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   *string          `json:"date"   validate:"omitempty,datetime=2006-01-02"`
	Method string           `json:"method" validate:"required,max=30"`
}

type AccountResponse struct {
	ID            string           `json:"id"`
	Kind          string           `json:"kind"`
	BranchID      *int             `json:"branch_id"`
	Description   string           `json:"description"`
	Category      *string          `json:"category"`
	Counterparty  *string          `json:"counterparty"`
	Amount        decimal.Decimal  `json:"amount"`
	DueDate       string           `json:"due_date"`
	Status        string           `json:"status"`
	Overdue       bool             `json:"overdue"`
	SettledAmount *decimal.Decimal `json:"settled_amount"`
	SettledOn     *string          `json:"settled_on"`
	SettleMethod  *string          `json:"settle_method"`
	Notes         *string          `json:"notes"`
	CreatedAt     string           `json:"created_at"`
}

// ─── Closings ────────────────────────────────────────────────────────────────

type GenerateClosingRequest struct {
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date"   validate:"required,datetime=2006-01-02"`
	BranchIDs []int   `json:"branch_ids" validate:"omitempty,dive,min=1"`
	Notes     *string `json:"notes"`
}

type ClosingDetails struct {
	Sessions        []SessionResponse `json:"sessions"`
	Payables        []AccountResponse `json:"payables"`
	Receivables     []AccountResponse `json:"receivables"`
	OpenPayables    []AccountResponse `json:"open_payables"`
	OpenReceivables []AccountResponse `json:"open_receivables"`
}

type ClosingResponse struct {
	ID           string               `json:"id"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	BranchIDs    []int                `json:"branch_ids"`
	Revenue      decimal.Decimal      `json:"revenue"`
	Expense      decimal.Decimal      `json:"expense"`
	Result       decimal.Decimal      `json:"result"`
	Summary      model.ClosingSummary `json:"summary"`
	Notes        *string              `json:"notes"`
	CreatedBy    string               `json:"created_by"`
	Cancelled    bool                 `json:"cancelled"`
	CancelReason *string              `json:"cancel_reason,omitempty"`
	CancelledAt  *string              `json:"cancelled_at,omitempty"`
	CreatedAt    string               `json:"created_at"`
	Details      *ClosingDetails      `json:"details,omitempty"`
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

type AggregateResponse struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type BranchSessionsResponse struct {
	BranchID int              `json:"branch_id"`
	Counts   map[string]int64 `json:"counts"`
}

type DashboardResponse struct {
	OpenSessions       int64                    `json:"open_sessions"`
	PendingSessions    int64                    `json:"pending_sessions"`
	PayablesDueSoon    AggregateResponse        `json:"payables_due_soon"`
	PayablesOverdue    AggregateResponse        `json:"payables_overdue"`
	ReceivablesPending AggregateResponse        `json:"receivables_pending"`
	TodayByBranch      []BranchSessionsResponse `json:"today_by_branch"`
	GeneratedAt        string                   `json:"generated_at"`
}

// ─── Audit ───────────────────────────────────────────────────────────────────

type AuditLogResponse struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Action    string          `json:"action"`
	ActorID   *string         `json:"actor_id"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	CreatedAt string          `json:"created_at"`
}
