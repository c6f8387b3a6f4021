package handler

import (
	"net/http"

	"boutique/internal/dto"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	svc service.StockService
	cal service.Calendar
}

func NewStockHandler(svc service.StockService, cal service.Calendar) *StockHandler {
	return &StockHandler{svc: svc, cal: cal}
}

// RecordMovement godoc
// @Summary Records a stock movement
// @Description For type=adjust the quantity is the new absolute level.
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StockMovementRequest true "Movement"
// @Success 201 {object} dto.StockMovementResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.StockMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := actorID(c)
	resp, err := h.svc.RecordMovement(c.Request.Context(), &actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	q := newQuery(c)
	filter := repository.StockMovementFilter{
		VariantID:     q.optUUID("variant_id"),
		Type:          c.Query("type"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   q.optUUID("reference_id"),
		Page:          q.page(),
	}
	filter.From, filter.To = q.dayRange(h.cal)
	if !q.ok() {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.Alerts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
