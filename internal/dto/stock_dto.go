package dto

type StockMovementRequest struct {
	VariantID     string  `json:"variant_id"     validate:"required,uuid"`
	Type          string  `json:"type"           validate:"required,oneof=in out adjust return"`
	Quantity      int     `json:"quantity"       validate:"min=0"`
	Reason        string  `json:"reason"         validate:"required,max=200"`
	ReferenceType *string `json:"reference_type" validate:"omitempty,max=30"`
	ReferenceID   *string `json:"reference_id"   validate:"omitempty,uuid"`
}

type StockMovementResponse struct {
	ID            string  `json:"id"`
	VariantID     string  `json:"variant_id"`
	ProductName   string  `json:"product_name,omitempty"`
	Type          string  `json:"type"`
	Quantity      int     `json:"quantity"`
	StockBefore   int     `json:"stock_before"`
	StockAfter    int     `json:"stock_after"`
	Reason        string  `json:"reason"`
	ReferenceType *string `json:"reference_type"`
	ReferenceID   *string `json:"reference_id"`
	CreatedAt     string  `json:"created_at"`
}

type StockAlertResponse struct {
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	Shortfall   int    `json:"shortfall"`
}

type StockSummaryResponse struct {
	Products      int64 `json:"products"`
	Variants      int64 `json:"variants"`
	TotalUnits    int64 `json:"total_units"`
	Alerts        int64 `json:"alerts"`
	TodayUnitsIn  int64 `json:"today_units_in"`
	TodayUnitsOut int64 `json:"today_units_out"`
}
