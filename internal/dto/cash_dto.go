package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	BranchID      int             `json:"branch_id"      validate:"required,min=1"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type CloseSessionRequest struct {
	DeclaredAmount *decimal.Decimal `json:"declared_amount"`
	Notes          *string          `json:"notes"`
}

type ApproveSessionRequest struct {
	Notes *string `json:"notes"`
}

type CreateEntryRequest struct {
	SessionID     *string         `json:"session_id"     validate:"omitempty,uuid"`
	BranchID      int             `json:"branch_id"      validate:"required,min=1"`
	Type          string          `json:"type"           validate:"required,oneof=in out"`
	Amount        decimal.Decimal `json:"amount"         validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,max=30"`
	Installments  int             `json:"installments"   validate:"omitempty,min=1,max=24"`
	Description   string          `json:"description"`
	Origin        string          `json:"origin"         validate:"omitempty,oneof=store ecommerce adjustment"`
	OrderID       *string         `json:"order_id"       validate:"omitempty,uuid"`
	VariantID     *string         `json:"variant_id"     validate:"omitempty,uuid"`
	CustomerID    *string         `json:"customer_id"    validate:"omitempty,uuid"`
	SellerID      *string         `json:"seller_id"      validate:"omitempty,uuid"`
}

type UpdateEntryRequest struct {
	Type          *string          `json:"type"           validate:"omitempty,oneof=in out"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod *string          `json:"payment_method" validate:"omitempty,max=30"`
	Installments  *int             `json:"installments"   validate:"omitempty,min=1,max=24"`
	Description   *string          `json:"description"`
	Origin        *string          `json:"origin"         validate:"omitempty,oneof=store ecommerce adjustment"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EntryResponse struct {
	ID            string          `json:"id"`
	SessionID     *string         `json:"session_id"`
	BranchID      int             `json:"branch_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Installments  int             `json:"installments"`
	Description   string          `json:"description"`
	Origin        string          `json:"origin"`
	OrderID       *string         `json:"order_id,omitempty"`
	VariantID     *string         `json:"variant_id,omitempty"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	SellerID      *string         `json:"seller_id,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     string          `json:"created_at"`
}

type SessionResponse struct {
	ID              string           `json:"id"`
	BranchID        int              `json:"branch_id"`
	BusinessDate    string           `json:"business_date"`
	Status          string           `json:"status"`
	OpenerID        string           `json:"opener_id"`
	CloserID        *string          `json:"closer_id"`
	ApproverID      *string          `json:"approver_id"`
	OpeningAmount   decimal.Decimal  `json:"opening_amount"`
	DeclaredAmount  *decimal.Decimal `json:"declared_amount"`
	TotalIn         *decimal.Decimal `json:"total_in"`
	TotalOut        *decimal.Decimal `json:"total_out"`
	ComputedBalance *decimal.Decimal `json:"computed_balance"`
	Difference      *decimal.Decimal `json:"difference"`
	OpeningNotes    *string          `json:"opening_notes"`
	ClosingNotes    *string          `json:"closing_notes"`
	ApprovalNotes   *string          `json:"approval_notes"`
	OpenedAt        string           `json:"opened_at"`
	ClosedAt        *string          `json:"closed_at"`
	ApprovedAt      *string          `json:"approved_at"`
	Entries         []EntryResponse  `json:"entries,omitempty"`
}

// LiveTotals are recomputed from the current entry set on every read.
type LiveTotals struct {
	TotalIn    decimal.Decimal  `json:"total_in"`
	TotalOut   decimal.Decimal  `json:"total_out"`
	Balance    decimal.Decimal  `json:"balance"`
	Difference *decimal.Decimal `json:"difference"`
	EntryCount int64            `json:"entry_count"`
}

type BreakdownResponse struct {
	Key      string          `json:"key"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Count    int64           `json:"count"`
}

type SessionReportResponse struct {
	Session         SessionResponse     `json:"session"`
	Live            LiveTotals          `json:"live"`
	ByPaymentMethod []BreakdownResponse `json:"by_payment_method"`
}

type EntrySummaryResponse struct {
	TotalIn         decimal.Decimal     `json:"total_in"`
	TotalOut        decimal.Decimal     `json:"total_out"`
	Balance         decimal.Decimal     `json:"balance"`
	Count           int64               `json:"count"`
	ByPaymentMethod []BreakdownResponse `json:"by_payment_method"`
	ByOrigin        []BreakdownResponse `json:"by_origin"`
}
