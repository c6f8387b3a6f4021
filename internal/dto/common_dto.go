package dto

// ListResponse is the envelope for paginated listings.
type ListResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ReasonRequest carries a free-text justification (rejections, cancellations).
type ReasonRequest struct {
	Reason string `json:"reason"`
}
