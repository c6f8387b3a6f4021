package handler

import (
	"net/http"

	"boutique/internal/dto"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct {
	svc service.OrderService
	cal service.Calendar
}

func NewOrdersHandler(svc service.OrderService, cal service.Calendar) *OrdersHandler {
	return &OrdersHandler{svc: svc, cal: cal}
}

// Commit godoc
// @Summary Turns the customer's cart into an order
// @Description Stock, order, coupon usage and cart are written in one transaction.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CommitOrderRequest true "Checkout data"
// @Success 201 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders [post]
func (h *OrdersHandler) Commit(c *gin.Context) {
	var req dto.CommitOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := actorID(c)
	resp, err := h.svc.CommitOrder(c.Request.Context(), &actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) List(c *gin.Context) {
	q := newQuery(c)
	filter := repository.OrderFilter{
		CustomerID:    q.optUUID("customer_id"),
		BranchID:      q.optInt("branch_id"),
		StatusOrder:   c.Query("status"),
		StatusPayment: c.Query("payment_status"),
		Page:          q.page(),
	}
	filter.From, filter.To = q.dayRange(h.cal)
	if !q.ok() {
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := actorID(c)
	resp, err := h.svc.UpdateOrderStatus(c.Request.Context(), id, &actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := actorID(c)
	resp, err := h.svc.UpdatePaymentStatus(c.Request.Context(), id, &actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) UpdateTracking(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTrackingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := actorID(c)
	resp, err := h.svc.UpdateTracking(c.Request.Context(), id, &actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateCoupon previews a coupon against a cart value without redeeming it.
func (h *OrdersHandler) ValidateCoupon(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ValidateCoupon(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Carts ────────────────────────────────────────────────────────────────────

type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

func (h *CartHandler) Get(c *gin.Context) {
	customer, ok := uuidParam(c, "customer_id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), customer)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	customer, ok := uuidParam(c, "customer_id")
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), customer, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	customer, ok := uuidParam(c, "customer_id")
	if !ok {
		return
	}
	variant, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), customer, variant, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	customer, ok := uuidParam(c, "customer_id")
	if !ok {
		return
	}
	variant, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), customer, variant)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Clear(c *gin.Context) {
	customer, ok := uuidParam(c, "customer_id")
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), customer); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
