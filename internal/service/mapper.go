package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// notFoundOr maps a missing row to NotFoundError and passes other errors through.
func notFoundOr(err error, entity string, id uuid.UUID) error {
	if isNotFound(err) {
		return newNotFound(entity, id)
	}
	return err
}

func parseUUID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, newValidation(field, "must be a valid UUID")
	}
	return id, nil
}

func parseOptionalUUID(field string, s *string) (*uuid.UUID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := parseUUID(field, *s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func listResponse[T any](data []T, total int64, p repository.Page) *dto.ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return &dto.ListResponse[T]{Data: data, Total: total, Page: p.Page, Limit: p.Limit}
}

// ── Cash ─────────────────────────────────────────────────────────────────────

func toEntryResponse(e *model.CashEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:            e.ID.String(),
		SessionID:     uuidString(e.SessionID),
		BranchID:      e.BranchID,
		Type:          e.Type,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		Installments:  e.Installments,
		Description:   e.Description,
		Origin:        e.Origin,
		OrderID:       uuidString(e.OrderID),
		VariantID:     uuidString(e.VariantID),
		CustomerID:    uuidString(e.CustomerID),
		SellerID:      uuidString(e.SellerID),
		CreatedBy:     e.CreatedBy.String(),
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

func toSessionResponse(s *model.CashSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:              s.ID.String(),
		BranchID:        s.BranchID,
		BusinessDate:    s.BusinessDate,
		Status:          s.Status,
		OpenerID:        s.OpenerID.String(),
		CloserID:        uuidString(s.CloserID),
		ApproverID:      uuidString(s.ApproverID),
		OpeningAmount:   s.OpeningAmount,
		DeclaredAmount:  s.DeclaredAmount,
		TotalIn:         s.TotalIn,
		TotalOut:        s.TotalOut,
		ComputedBalance: s.ComputedBalance,
		Difference:      s.Difference,
		OpeningNotes:    s.OpeningNotes,
		ClosingNotes:    s.ClosingNotes,
		ApprovalNotes:   s.ApprovalNotes,
		OpenedAt:        s.OpenedAt.Format(time.RFC3339),
		ClosedAt:        timeString(s.ClosedAt),
		ApprovedAt:      timeString(s.ApprovedAt),
	}
	for i := range s.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&s.Entries[i]))
	}
	return resp
}

func toBreakdown(rows []repository.EntryBreakdown) []dto.BreakdownResponse {
	out := make([]dto.BreakdownResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BreakdownResponse{Key: r.Key, TotalIn: r.TotalIn, TotalOut: r.TotalOut, Count: r.Count})
	}
	return out
}

// ── Orders ───────────────────────────────────────────────────────────────────

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                o.ID.String(),
		CustomerID:        o.CustomerID.String(),
		BranchID:          o.OriginBranchID,
		StatusOrder:       o.StatusOrder,
		StatusPayment:     o.StatusPayment,
		Subtotal:          o.Subtotal,
		DiscountTotal:     o.DiscountTotal,
		CouponDiscount:    o.CouponDiscount,
		Shipping:          o.Shipping,
		Total:             o.Total,
		CouponID:          uuidString(o.CouponID),
		CouponApplied:     o.CouponID != nil,
		ShippingAddressID: uuidString(o.ShippingAddressID),
		PaymentMethod:     o.PaymentMethod,
		Installments:      o.Installments,
		TrackingCode:      o.TrackingCode,
		TrackingURL:       o.TrackingURL,
		ExpectedDelivery:  dateString(o.ExpectedDelivery),
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		Items:             make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID:    it.ProductID.String(),
			VariantID:    it.VariantID.String(),
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			UnitDiscount: it.UnitDiscount,
			Subtotal:     it.Subtotal,
			Discount:     it.Discount,
			LineTotal:    it.LineTotal,
		})
	}
	return resp
}

// ── Finance ──────────────────────────────────────────────────────────────────

func toAccountResponse(kind string, a *model.Account, today time.Time) dto.AccountResponse {
	return dto.AccountResponse{
		ID:            a.ID.String(),
		Kind:          kind,
		BranchID:      a.BranchID,
		Description:   a.Description,
		Category:      a.Category,
		Counterparty:  a.Counterparty,
		Amount:        a.Amount,
		DueDate:       a.DueDate.Format(dateLayout),
		Status:        a.Status,
		Overdue:       a.Status == model.AccountPending && a.DueDate.Before(today),
		SettledAmount: a.SettledAmount,
		SettledOn:     dateString(a.SettledOn),
		SettleMethod:  a.SettleMethod,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toAccountResponses(kind string, accounts []model.Account, today time.Time) []dto.AccountResponse {
	out := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(kind, &accounts[i], today))
	}
	return out
}

func toClosingResponse(c *model.FinancialClosing) (dto.ClosingResponse, error) {
	resp := dto.ClosingResponse{
		ID:           c.ID.String(),
		StartDate:    c.StartDate.Format(dateLayout),
		EndDate:      c.EndDate.Format(dateLayout),
		Revenue:      c.Revenue,
		Expense:      c.Expense,
		Result:       c.Result,
		Notes:        c.Notes,
		CreatedBy:    c.CreatedBy.String(),
		Cancelled:    c.Cancelled,
		CancelReason: c.CancelReason,
		CancelledAt:  timeString(c.CancelledAt),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		BranchIDs:    []int{},
	}
	if c.Branches != "" {
		if err := json.Unmarshal([]byte(c.Branches), &resp.BranchIDs); err != nil {
			return resp, err
		}
	}
	if err := json.Unmarshal([]byte(c.Summary), &resp.Summary); err != nil {
		return resp, err
	}
	return resp, nil
}

func toAuditResponse(l *model.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:        l.ID.String(),
		Entity:    l.Entity,
		EntityID:  l.EntityID,
		Action:    l.Action,
		ActorID:   uuidString(l.ActorID),
		Before:    rawJSON(l.Before),
		After:     rawJSON(l.After),
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
}

func rawJSON(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}
