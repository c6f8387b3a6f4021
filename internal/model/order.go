package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order workflow statuses.
const (
	OrderNew       = "new"
	OrderPicking   = "picking"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderReturned  = "returned"
)

// Payment statuses.
const (
	PaymentAwaiting = "awaiting"
	PaymentPaid     = "paid"
	PaymentDeclined = "declined"
	PaymentRefunded = "refunded"
)

// Order is created atomically from a cart snapshot and never deleted.
// Total = Subtotal - DiscountTotal + Shipping; DiscountTotal includes CouponDiscount.
type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginBranchID    int             `gorm:"not null;index"`
	StatusOrder       string          `gorm:"type:varchar(20);not null;default:'new';index"`
	StatusPayment     string          `gorm:"type:varchar(20);not null;default:'awaiting';index"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CouponDiscount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Shipping          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CouponID          *uuid.UUID      `gorm:"type:uuid"`
	ShippingAddressID *uuid.UUID      `gorm:"type:uuid"`
	PaymentMethod     string          `gorm:"type:varchar(30)"`
	Installments      int             `gorm:"not null;default:1"`
	PaymentExternalID *string
	TrackingCode      *string
	TrackingURL       *string
	ExpectedDelivery  *time.Time
	PickedBy          *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"index"`
	UpdatedAt         time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable price snapshot taken at commit time.
// Subtotal = UnitPrice * Quantity, Discount = UnitDiscount * Quantity,
// LineTotal = Subtotal - Discount.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// CartItem is one line of a customer's cart.
type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_cart_customer_variant"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_cart_customer_variant"`
	Quantity   int       `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}
