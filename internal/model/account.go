package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account kinds.
const (
	AccountPayableKind    = "payable"
	AccountReceivableKind = "receivable"
)

// Account statuses. Payables settle to AccountPaid, receivables to AccountReceived.
const (
	AccountPending   = "pending"
	AccountPaid      = "paid"
	AccountReceived  = "received"
	AccountCancelled = "cancelled"
)

// Account holds the columns shared by payables and receivables.
type Account struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID      *int            `gorm:"index"`
	Description   string          `gorm:"not null"`
	Category      *string         `gorm:"type:varchar(60)"`
	Counterparty  *string         `gorm:"type:varchar(120)"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate       time.Time       `gorm:"type:date;not null;index"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	SettledAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SettledOn     *time.Time       `gorm:"type:date;index"`
	SettleMethod  *string          `gorm:"type:varchar(30)"`
	SettledBy     *uuid.UUID       `gorm:"type:uuid"`
	Notes         *string
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Settled reports whether the account already left the pending state.
func (a *Account) Settled() bool { return a.Status == AccountPaid || a.Status == AccountReceived }

type AccountPayable struct {
	Account
}

func (AccountPayable) TableName() string { return "accounts_payable" }

type AccountReceivable struct {
	Account
}

func (AccountReceivable) TableName() string { return "accounts_receivable" }
