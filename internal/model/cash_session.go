package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash session states. A rejected session goes back to SessionOpen.
const (
	SessionOpen            = "open"
	SessionPendingApproval = "pending_approval"
	SessionApproved        = "approved"
)

// Cash entry directions.
const (
	EntryIn  = "in"
	EntryOut = "out"
)

// Cash entry origins.
const (
	OriginStore      = "store"
	OriginEcommerce  = "ecommerce"
	OriginAdjustment = "adjustment"
)

// CashSession represents one register lifecycle for a branch on a business day.
// Closing totals are frozen from a recomputation over its entries, never
// incremented in place.
type CashSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID      int             `gorm:"not null;index:idx_cash_sessions_branch_day"`
	BusinessDate  string          `gorm:"type:varchar(10);not null;index:idx_cash_sessions_branch_day"`
	OpenerID      uuid.UUID       `gorm:"type:uuid;not null"`
	CloserID      *uuid.UUID      `gorm:"type:uuid"`
	ApproverID    *uuid.UUID      `gorm:"type:uuid"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Set on close, cleared on rejection.
	DeclaredAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalIn         *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalOut        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ComputedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status          string           `gorm:"type:varchar(20);not null;default:'open';index"`
	OpeningNotes    *string
	ClosingNotes    *string
	ApprovalNotes   *string
	OpenedAt        time.Time
	ClosedAt        *time.Time `gorm:"index"`
	ApprovedAt      *time.Time
	UpdatedAt       time.Time

	Entries []CashEntry `gorm:"foreignKey:SessionID"`
}

// CashEntry is one inbound or outbound movement on a branch register.
// Amount is always positive; Type carries the direction.
type CashEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     *uuid.UUID      `gorm:"type:uuid;index"`
	BranchID      int             `gorm:"not null;index"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(30);not null"`
	Installments  int             `gorm:"not null;default:1"`
	Description   string
	Origin        string     `gorm:"type:varchar(20);not null;default:'store'"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index"`
	VariantID     *uuid.UUID `gorm:"type:uuid"`
	CustomerID    *uuid.UUID `gorm:"type:uuid"`
	SellerID      *uuid.UUID `gorm:"type:uuid"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt     time.Time  `gorm:"index"`
	UpdatedAt     time.Time
}
