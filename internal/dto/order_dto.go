package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CommitOrderRequest struct {
	CustomerID         string          `json:"customer_id"          validate:"required,uuid"`
	BranchID           int             `json:"branch_id"            validate:"required,min=1"`
	ShippingAddressID  *string         `json:"shipping_address_id"  validate:"omitempty,uuid"`
	PaymentMethod      string          `json:"payment_method"       validate:"required,max=30"`
	Installments       int             `json:"installments"         validate:"omitempty,min=1,max=24"`
	Shipping           decimal.Decimal `json:"shipping"             validate:"min=0"`
	CouponCode         *string         `json:"coupon_code"`
	RequireValidCoupon bool            `json:"require_valid_coupon"`
}

type UpdateOrderStatusRequest struct {
	Status   string  `json:"status"    validate:"required,oneof=new picking shipped delivered cancelled returned"`
	PickedBy *string `json:"picked_by" validate:"omitempty,uuid"`
}

type UpdatePaymentStatusRequest struct {
	Status     string  `json:"status"      validate:"required,oneof=awaiting paid declined refunded"`
	ExternalID *string `json:"external_id"`
}

type UpdateTrackingRequest struct {
	Code             *string `json:"code"`
	URL              *string `json:"url"               validate:"omitempty,url"`
	ExpectedDelivery *string `json:"expected_delivery" validate:"omitempty,datetime=2006-01-02"`
}

type ValidateCouponRequest struct {
	Code      string          `json:"code"       validate:"required"`
	CartValue decimal.Decimal `json:"cart_value" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	CustomerID        string              `json:"customer_id"`
	BranchID          int                 `json:"branch_id"`
	StatusOrder       string              `json:"status_order"`
	StatusPayment     string              `json:"status_payment"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	DiscountTotal     decimal.Decimal     `json:"discount_total"`
	CouponDiscount    decimal.Decimal     `json:"coupon_discount"`
	Shipping          decimal.Decimal     `json:"shipping"`
	Total             decimal.Decimal     `json:"total"`
	CouponID          *string             `json:"coupon_id"`
	CouponApplied     bool                `json:"coupon_applied"`
	ShippingAddressID *string             `json:"shipping_address_id"`
	PaymentMethod     string              `json:"payment_method"`
	Installments      int                 `json:"installments"`
	TrackingCode      *string             `json:"tracking_code,omitempty"`
	TrackingURL       *string             `json:"tracking_url,omitempty"`
	ExpectedDelivery  *string             `json:"expected_delivery,omitempty"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         string              `json:"created_at"`
}

type ValidateCouponResponse struct {
	Valid      bool             `json:"valid"`
	Reason     string           `json:"reason,omitempty"`
	Code       string           `json:"code"`
	Kind       string           `json:"kind,omitempty"` // percent | fixed
	Value      *decimal.Decimal `json:"value,omitempty"`
	Discount   decimal.Decimal  `json:"discount"`
	FinalValue decimal.Decimal  `json:"final_value"`
}
