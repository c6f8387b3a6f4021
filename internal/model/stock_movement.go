package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement types. For MovementAdjust the quantity is the new absolute level.
const (
	MovementIn     = "in"
	MovementOut    = "out"
	MovementAdjust = "adjust"
	MovementReturn = "return"
)

// StockMovement is an append-only ledger row for one variant.
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VariantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type          string     `gorm:"type:varchar(10);not null"`
	Quantity      int        `gorm:"not null"`
	StockBefore   int        `gorm:"not null"`
	StockAfter    int        `gorm:"not null"`
	Reason        string     `gorm:"not null"`
	ReferenceType *string    `gorm:"type:varchar(30);index:idx_stock_movements_ref"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index:idx_stock_movements_ref"`
	UserID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"index"`

	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}
