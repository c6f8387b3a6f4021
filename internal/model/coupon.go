package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon defines either a percentage or a fixed discount.
type Coupon struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code          string           `gorm:"type:varchar(40);uniqueIndex;not null"`
	Percent       *decimal.Decimal `gorm:"type:decimal(5,2)"`
	FixedValue    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	QuantityTotal int              `gorm:"not null"`
	QuantityUsed  int              `gorm:"not null;default:0"`
	StartsAt      *time.Time
	EndsAt        *time.Time
	Active        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Eligible reports whether the coupon can be redeemed at t, and why not.
func (c *Coupon) Eligible(t time.Time) (bool, string) {
	switch {
	case !c.Active:
		return false, "inactive"
	case c.StartsAt != nil && day(t).Before(day(c.StartsAt.In(t.Location()))):
		return false, "not_started"
	case c.EndsAt != nil && day(t).After(day(c.EndsAt.In(t.Location()))):
		return false, "expired"
	case c.QuantityUsed >= c.QuantityTotal:
		return false, "exhausted"
	}
	return true, ""
}

// day truncates t to midnight; coupon windows are inclusive calendar days.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DiscountFor returns the discount the coupon grants on base, capped at base.
func (c *Coupon) DiscountFor(base decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch {
	case c.Percent != nil && c.Percent.IsPositive():
		d = base.Mul(*c.Percent).Div(decimal.NewFromInt(100))
	case c.FixedValue != nil:
		d = *c.FixedValue
	}
	if d.GreaterThan(base) {
		d = base
	}
	return d.Round(2)
}

// CouponUsage is an append-only redemption record.
type CouponUsage struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CouponID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
}
