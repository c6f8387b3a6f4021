package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialClosing is an immutable snapshot of a period. Only the
// cancellation fields change after creation.
type FinancialClosing struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StartDate time.Time       `gorm:"type:date;not null"`
	EndDate   time.Time       `gorm:"type:date;not null"`
	Branches  string          `gorm:"type:jsonb;not null;default:'[]'"`
	Revenue   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Expense   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Result    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	// Summary is the JSON-encoded ClosingSummary, written once.
	Summary      string `gorm:"type:jsonb;not null"`
	Notes        *string
	CreatedBy    uuid.UUID `gorm:"type:uuid;not null"`
	Cancelled    bool      `gorm:"not null;default:false"`
	CancelledBy  *uuid.UUID `gorm:"type:uuid"`
	CancelledAt  *time.Time
	CancelReason *string
	CreatedAt    time.Time
}

// ClosingSummary is the structured blob stored in FinancialClosing.Summary.
type ClosingSummary struct {
	Sessions    ClosingSessions `json:"sessions"`
	Payables    ClosingBucket   `json:"payables"`
	Receivables ClosingBucket   `json:"receivables"`
	OpenItems   ClosingOpen     `json:"open_items"`
}

type ClosingSessions struct {
	Count    int             `json:"count"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Balance  decimal.Decimal `json:"balance"`
	IDs      []uuid.UUID     `json:"ids"`
}

type ClosingBucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type ClosingOpen struct {
	Payables    ClosingBucket `json:"payables"`
	Receivables ClosingBucket `json:"receivables"`
}
