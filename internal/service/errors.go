package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinels for errors.Is; the typed errors below unwrap to them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCouponIneligible  = errors.New("coupon not eligible")
)

// Conflict codes surfaced to clients.
const (
	CodeSessionAlreadyOpen  = "session_already_open"
	CodeSessionNotOpen      = "session_not_open"
	CodeSessionNotPending   = "session_not_pending"
	CodeSessionApproved     = "session_approved"
	CodeSessionBranch       = "session_branch_mismatch"
	CodeAccountSettled      = "account_settled"
	CodeAccountCancelled    = "account_cancelled"
	CodeClosingPeriodExists = "closing_period_exists"
	CodeClosingCancelled    = "closing_cancelled"
	CodeInvalidTransition   = "invalid_transition"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidation(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func newNotFound(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

func newConflict(code, msg string) error { return &ConflictError{Code: code, Message: msg} }

// InsufficientStockError names the variant that cannot cover the request.
type InsufficientStockError struct {
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// CouponIneligibleError is returned only when the caller requires a valid coupon.
type CouponIneligibleError struct {
	Code   string
	Reason string
}

func (e *CouponIneligibleError) Error() string {
	return fmt.Sprintf("coupon %s not eligible: %s", e.Code, e.Reason)
}

func (e *CouponIneligibleError) Unwrap() error { return ErrCouponIneligible }
