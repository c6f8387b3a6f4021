package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is owned by the catalog; the engine only reads price and discount
// fields at commit time.
type Product struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU      string          `gorm:"uniqueIndex;not null"`
	Name     string          `gorm:"index;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// DiscountValue is a flat per-unit discount and wins over DiscountPct.
	DiscountValue *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DiscountPct   *decimal.Decimal `gorm:"type:decimal(5,2)"`
	Active        bool             `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant carries the live stock counter, materialized from the
// stock_movements ledger.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Size      string    `gorm:"type:varchar(20)"`
	Color     string    `gorm:"type:varchar(40)"`
	Stock     int       `gorm:"not null;default:0"`
	MinStock  int       `gorm:"not null;default:0"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// UnitDiscount returns the per-unit discount applicable to the product.
func (p *Product) UnitDiscount() decimal.Decimal {
	if p.DiscountValue != nil && p.DiscountValue.IsPositive() {
		return *p.DiscountValue
	}
	if p.DiscountPct != nil && p.DiscountPct.IsPositive() {
		return p.Price.Mul(*p.DiscountPct).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Zero
}
