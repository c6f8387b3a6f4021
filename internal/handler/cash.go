package handler

import (
	"net/http"

	"boutique/internal/dto"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
)

type CashHandler struct {
	svc service.CashSessionService
	cal service.Calendar
}

func NewCashHandler(svc service.CashSessionService, cal service.Calendar) *CashHandler {
	return &CashHandler{svc: svc, cal: cal}
}

// OpenSession godoc
// @Summary Opens a cash session for a branch
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening data"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/sessions [post]
func (h *CashHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenSession(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseSession godoc
// @Summary Closes an open session and sends it for approval
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.CloseSessionRequest true "Declared amount"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/sessions/{id}/close [post]
func (h *CashHandler) CloseSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), id, actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession godoc
// @Summary Session report with entries and live totals
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionReportResponse
// @Router /v1/cash/sessions/{id} [get]
func (h *CashHandler) GetSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSession(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CashHandler) ListSessions(c *gin.Context) {
	q := newQuery(c)
	filter := repository.SessionFilter{
		BranchID:     q.optInt("branch_id"),
		Status:       c.Query("status"),
		BusinessDate: c.Query("business_date"),
		Page:         q.page(),
	}
	filter.From, filter.To = q.dayRange(h.cal)
	if !q.ok() {
		return
	}
	resp, err := h.svc.ListSessions(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentSession returns today's open session for ?branch_id=.
func (h *CashHandler) CurrentSession(c *gin.Context) {
	q := newQuery(c)
	branch := q.optInt("branch_id")
	if !q.ok() {
		return
	}
	if branch == nil {
		badParam(c, "branch_id", "required")
		return
	}
	resp, err := h.svc.CurrentSession(c.Request.Context(), *branch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Entries ──────────────────────────────────────────────────────────────────

// CreateEntry godoc
// @Summary Records a cash entry
// @Description Attaches to the branch's open session when there is one.
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateEntryRequest true "Entry"
// @Success 201 {object} dto.EntryResponse
// @Router /v1/cash/entries [post]
func (h *CashHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateEntry(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CashHandler) UpdateEntry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateEntry(c.Request.Context(), id, actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CashHandler) DeleteEntry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(c.Request.Context(), id, actorID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CashHandler) entryFilter(c *gin.Context) (repository.EntryFilter, bool) {
	q := newQuery(c)
	f := repository.EntryFilter{
		SessionID:     q.optUUID("session_id"),
		Unassigned:    q.boolean("unassigned"),
		BranchID:      q.optInt("branch_id"),
		Type:          c.Query("type"),
		PaymentMethod: c.Query("payment_method"),
		Origin:        c.Query("origin"),
		Page:          q.page(),
	}
	f.From, f.To = q.dayRange(h.cal)
	return f, q.ok()
}

func (h *CashHandler) ListEntries(c *gin.Context) {
	filter, ok := h.entryFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListEntries(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EntrySummary totals the filtered entries, by payment method and by origin.
func (h *CashHandler) EntrySummary(c *gin.Context) {
	filter, ok := h.entryFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.EntrySummary(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
