package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	orderSaleReason   = "order sale"
	orderReturnReason = "order returned"
	referenceOrder    = "order"
)

type OrderService interface {
	CommitOrder(ctx context.Context, actorID *uuid.UUID, req dto.CommitOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.ListResponse[dto.OrderResponse], error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdatePaymentStatusRequest) (*dto.OrderResponse, error)
	UpdateTracking(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdateTrackingRequest) (*dto.OrderResponse, error)
	ValidateCoupon(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error)
}

type orderService struct {
	tx           repository.TransactionManager
	orders       repository.OrderRepository
	carts        repository.CartRepository
	variants     repository.VariantRepository
	coupons      repository.CouponRepository
	stock        StockService
	audit        Auditor
	notify       Notifier
	cal          Calendar
	couponStrict bool
}

func NewOrderService(
	tx repository.TransactionManager,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	variants repository.VariantRepository,
	coupons repository.CouponRepository,
	stock StockService,
	audit Auditor,
	notify Notifier,
	cal Calendar,
	couponStrict bool,
) OrderService {
	return &orderService{
		tx:           tx,
		orders:       orders,
		carts:        carts,
		variants:     variants,
		coupons:      coupons,
		stock:        stock,
		audit:        audit,
		notify:       notify,
		cal:          cal,
		couponStrict: couponStrict,
	}
}

// ── CommitOrder ───────────────────────────────────────────────────────────────
// Cart → order in one unit of work: stock checks, pricing snapshot, coupon,
// stock movements, coupon usage and cart clearing commit together or not at all.

func (s *orderService) CommitOrder(ctx context.Context, actorID *uuid.UUID, req dto.CommitOrderRequest) (*dto.OrderResponse, error) {
	customerID, err := parseUUID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	addressID, err := parseOptionalUUID("shipping_address_id", req.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if req.BranchID < 1 {
		return nil, newValidation("branch_id", "is required")
	}
	if req.Shipping.IsNegative() {
		return nil, newValidation("shipping", "must not be negative")
	}
	installments := req.Installments
	if installments < 1 {
		installments = 1
	}
	code := ""
	if req.CouponCode != nil {
		code = strings.ToUpper(strings.TrimSpace(*req.CouponCode))
	}
	strict := req.RequireValidCoupon || s.couponStrict

	var order *model.Order
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lines, err := s.carts.ListByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		// fixed lock order so concurrent checkouts sharing variants cannot deadlock
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].VariantID.String() < lines[j].VariantID.String()
		})

		order = &model.Order{
			ID:                uuid.New(),
			CustomerID:        customerID,
			OriginBranchID:    req.BranchID,
			StatusOrder:       model.OrderNew,
			StatusPayment:     model.PaymentAwaiting,
			ShippingAddressID: addressID,
			PaymentMethod:     req.PaymentMethod,
			Installments:      installments,
			Shipping:          req.Shipping.Round(2),
			CreatedAt:         s.cal.Now(),
		}

		subtotal, lineDiscount := decimal.Zero, decimal.Zero
		for _, line := range lines {
			v, err := s.variants.FindForUpdate(txCtx, line.VariantID)
			if err != nil {
				return notFoundOr(err, "variant", line.VariantID)
			}
			if !v.Active || v.Product == nil || !v.Product.Active {
				log.Info().Str("variant_id", v.ID.String()).Str("customer_id", customerID.String()).
					Msg("inactive cart line skipped at checkout")
				continue
			}
			if line.Quantity > v.Stock {
				return &InsufficientStockError{VariantID: v.ID, Requested: line.Quantity, Available: v.Stock}
			}
			item := priceLine(order.ID, v, line.Quantity)
			subtotal = subtotal.Add(item.Subtotal)
			lineDiscount = lineDiscount.Add(item.Discount)
			order.Items = append(order.Items, item)
		}
		if len(order.Items) == 0 {
			return ErrEmptyCart
		}

		base := subtotal.Sub(lineDiscount)
		var coupon *model.Coupon
		couponDiscount := decimal.Zero
		if code != "" {
			c, reason, err := s.eligibleCoupon(txCtx, code, true)
			if err != nil {
				return err
			}
			switch {
			case c != nil:
				coupon = c
				couponDiscount = c.DiscountFor(base)
			case strict:
				return &CouponIneligibleError{Code: code, Reason: reason}
			default:
				log.Info().Str("coupon", code).Str("reason", reason).Msg("coupon ignored at checkout")
			}
		}

		order.Subtotal = subtotal
		order.CouponDiscount = couponDiscount
		order.DiscountTotal = lineDiscount.Add(couponDiscount)
		order.Total = subtotal.Sub(order.DiscountTotal).Add(order.Shipping)
		if coupon != nil {
			order.CouponID = &coupon.ID
		}

		if err := s.orders.Create(txCtx, order); err != nil {
			return err
		}

		ref := referenceOrder
		for _, it := range order.Items {
			if _, err := s.stock.Apply(txCtx, MovementInput{
				VariantID:     it.VariantID,
				Type:          model.MovementOut,
				Quantity:      it.Quantity,
				Reason:        orderSaleReason,
				ReferenceType: &ref,
				ReferenceID:   &order.ID,
				UserID:        actorID,
			}); err != nil {
				return err
			}
		}

		if coupon != nil {
			ok, err := s.coupons.IncrementUsed(txCtx, coupon.ID)
			if err != nil {
				return err
			}
			if !ok {
				return &CouponIneligibleError{Code: code, Reason: "exhausted"}
			}
			if err := s.coupons.CreateUsage(txCtx, &model.CouponUsage{
				ID:         uuid.New(),
				CouponID:   coupon.ID,
				OrderID:    order.ID,
				CustomerID: customerID,
				Discount:   couponDiscount,
				CreatedAt:  order.CreatedAt,
			}); err != nil {
				return err
			}
		}

		return s.carts.Clear(txCtx, customerID)
	})
	if err != nil {
		return nil, err
	}

	resp := toOrderResponse(order)
	s.audit.Record(ctx, AuditRecord{
		Entity: "order", EntityID: order.ID.String(), Action: model.AuditCreate, ActorID: actorID, After: resp,
	})
	s.notify.Notify(ctx, Notification{Event: EventOrderCreated, Data: resp})
	return &resp, nil
}

// priceLine snapshots the catalog price at commit time. The flat product
// discount wins over the percentage; a discount never exceeds the price.
func priceLine(orderID uuid.UUID, v *model.ProductVariant, qty int) model.OrderItem {
	price := v.Product.Price
	unitDiscount := v.Product.UnitDiscount()
	if unitDiscount.GreaterThan(price) {
		unitDiscount = price
	}
	q := decimal.NewFromInt(int64(qty))
	sub := price.Mul(q).Round(2)
	disc := unitDiscount.Mul(q).Round(2)
	return model.OrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    v.ProductID,
		VariantID:    v.ID,
		ProductName:  v.Product.Name,
		Quantity:     qty,
		UnitPrice:    price,
		UnitDiscount: unitDiscount,
		Subtotal:     sub,
		Discount:     disc,
		LineTotal:    sub.Sub(disc),
	}
}

// eligibleCoupon returns the coupon when it can be redeemed now, or the
// reason it cannot. Only storage failures are returned as errors.
func (s *orderService) eligibleCoupon(ctx context.Context, code string, lock bool) (*model.Coupon, string, error) {
	find := s.coupons.FindByCode
	if lock {
		find = s.coupons.FindByCodeForUpdate
	}
	c, err := find(ctx, code)
	if isNotFound(err) {
		return nil, "not_found", nil
	}
	if err != nil {
		return nil, "", err
	}
	if ok, reason := c.Eligible(s.cal.Now()); !ok {
		return nil, reason, nil
	}
	return c, "", nil
}

// ── ValidateCoupon ────────────────────────────────────────────────────────────

func (s *orderService) ValidateCoupon(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, newValidation("code", "is required")
	}
	if req.CartValue.IsNegative() {
		return nil, newValidation("cart_value", "must not be negative")
	}
	c, reason, err := s.eligibleCoupon(ctx, code, false)
	if err != nil {
		return nil, err
	}
	resp := &dto.ValidateCouponResponse{Code: code, FinalValue: req.CartValue}
	if c == nil {
		resp.Reason = reason
		return resp, nil
	}
	resp.Valid = true
	if c.Percent != nil && c.Percent.IsPositive() {
		resp.Kind, resp.Value = "percent", c.Percent
	} else {
		resp.Kind, resp.Value = "fixed", c.FixedValue
	}
	resp.Discount = c.DiscountFor(req.CartValue)
	resp.FinalValue = req.CartValue.Sub(resp.Discount)
	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	resp := toOrderResponse(o)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.ListResponse[dto.OrderResponse], error) {
	rows, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toOrderResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}

// ── Workflow ──────────────────────────────────────────────────────────────────

var orderTransitions = map[string][]string{
	model.OrderNew:       {model.OrderPicking, model.OrderCancelled},
	model.OrderPicking:   {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:   {model.OrderDelivered, model.OrderReturned},
	model.OrderDelivered: {model.OrderReturned},
}

var paymentTransitions = map[string][]string{
	model.PaymentAwaiting: {model.PaymentPaid, model.PaymentDeclined},
	model.PaymentDeclined: {model.PaymentAwaiting, model.PaymentPaid},
	model.PaymentPaid:     {model.PaymentRefunded},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateOrderStatus moves the fulfilment status. Cancelling or returning an
// order puts its units back in stock.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	pickedBy, err := parseOptionalUUID("picked_by", req.PickedBy)
	if err != nil {
		return nil, err
	}
	var before dto.OrderResponse
	o, err := s.mutateOrder(ctx, id, func(txCtx context.Context, o *model.Order) error {
		before = toOrderResponse(o)
		if !allowed(orderTransitions, o.StatusOrder, req.Status) {
			return newConflict(CodeInvalidTransition,
				fmt.Sprintf("order cannot move from %s to %s", o.StatusOrder, req.Status))
		}
		o.StatusOrder = req.Status
		if pickedBy != nil {
			o.PickedBy = pickedBy
		}
		if req.Status != model.OrderCancelled && req.Status != model.OrderReturned {
			return nil
		}
		ref := referenceOrder
		for _, it := range o.Items {
			if _, err := s.stock.Apply(txCtx, MovementInput{
				VariantID:     it.VariantID,
				Type:          model.MovementReturn,
				Quantity:      it.Quantity,
				Reason:        orderReturnReason,
				ReferenceType: &ref,
				ReferenceID:   &o.ID,
				UserID:        actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterOrderChange(ctx, actorID, before, o), nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdatePaymentStatusRequest) (*dto.OrderResponse, error) {
	var before dto.OrderResponse
	o, err := s.mutateOrder(ctx, id, func(_ context.Context, o *model.Order) error {
		before = toOrderResponse(o)
		if !allowed(paymentTransitions, o.StatusPayment, req.Status) {
			return newConflict(CodeInvalidTransition,
				fmt.Sprintf("payment cannot move from %s to %s", o.StatusPayment, req.Status))
		}
		o.StatusPayment = req.Status
		if ext := trimmed(req.ExternalID); ext != nil {
			o.PaymentExternalID = ext
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterOrderChange(ctx, actorID, before, o), nil
}

func (s *orderService) UpdateTracking(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, req dto.UpdateTrackingRequest) (*dto.OrderResponse, error) {
	var expected *time.Time
	if req.ExpectedDelivery != nil && *req.ExpectedDelivery != "" {
		d, err := s.cal.Date(*req.ExpectedDelivery)
		if err != nil {
			return nil, newValidation("expected_delivery", "must be YYYY-MM-DD")
		}
		expected = &d
	}
	var before dto.OrderResponse
	o, err := s.mutateOrder(ctx, id, func(_ context.Context, o *model.Order) error {
		before = toOrderResponse(o)
		if o.StatusOrder == model.OrderCancelled || o.StatusOrder == model.OrderReturned {
			return newConflict(CodeInvalidTransition, "order is "+o.StatusOrder)
		}
		if v := trimmed(req.Code); v != nil {
			o.TrackingCode = v
		}
		if v := trimmed(req.URL); v != nil {
			o.TrackingURL = v
		}
		if expected != nil {
			o.ExpectedDelivery = expected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterOrderChange(ctx, actorID, before, o), nil
}

// mutateOrder locks the order, applies fn and saves it in one unit of work.
func (s *orderService) mutateOrder(ctx context.Context, id uuid.UUID, fn func(txCtx context.Context, o *model.Order) error) (*model.Order, error) {
	var order *model.Order
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindForUpdate(txCtx, id)
		if err != nil {
			return notFoundOr(err, "order", id)
		}
		if err := fn(txCtx, o); err != nil {
			return err
		}
		o.UpdatedAt = s.cal.Now()
		order = o
		return s.orders.Update(txCtx, o)
	})
	return order, err
}

// afterOrderChange audits and broadcasts; order events are not mailed to finance.
func (s *orderService) afterOrderChange(ctx context.Context, actorID *uuid.UUID, before dto.OrderResponse, o *model.Order) *dto.OrderResponse {
	after := toOrderResponse(o)
	s.audit.Record(ctx, AuditRecord{
		Entity: "order", EntityID: o.ID.String(), Action: model.AuditStatusChange,
		ActorID: actorID, Before: before, After: after,
	})
	s.notify.Notify(ctx, Notification{Event: EventOrderStatusChanged, Data: after})
	return &after
}
