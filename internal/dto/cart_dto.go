package dto

import "github.com/shopspring/decimal"

type AddCartItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type CartLineResponse struct {
	VariantID    string          `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Available    int             `json:"available"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	CustomerID string             `json:"customer_id"`
	Items      []CartLineResponse `json:"items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Discount   decimal.Decimal    `json:"discount"`
	Total      decimal.Decimal    `json:"total"`
}
