package handler

import (
	"net/http"

	"boutique/internal/dto"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
)

// ── Reconciliation ───────────────────────────────────────────────────────────

type ReconciliationHandler struct {
	svc service.ReconciliationService
	cal service.Calendar
}

func NewReconciliationHandler(svc service.ReconciliationService, cal service.Calendar) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc, cal: cal}
}

func (h *ReconciliationHandler) ListPending(c *gin.Context) {
	q := newQuery(c)
	filter := repository.SessionFilter{BranchID: q.optInt("branch_id"), Page: q.page()}
	filter.From, filter.To = q.dayRange(h.cal)
	if !q.ok() {
		return
	}
	resp, err := h.svc.ListPending(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Review recomputes the session from its current entries.
func (h *ReconciliationHandler) Review(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ReviewDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary Approves a pending cash session
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.ApproveSessionRequest false "Approval notes"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/finance/sessions/{id}/approve [post]
func (h *ReconciliationHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ApproveSessionRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApproveSession(c.Request.Context(), id, actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reject godoc
// @Summary Sends a pending session back to the store
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.ReasonRequest true "Rejection reason"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError "session_not_pending or session_already_open"
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/finance/sessions/{id}/reject [post]
func (h *ReconciliationHandler) Reject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RejectSession(c.Request.Context(), id, actorID(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Payables / receivables ───────────────────────────────────────────────────

// AccountHandler serves one ledger; the router mounts one per kind.
type AccountHandler struct{ svc service.AccountService }

func NewAccountHandler(svc service.AccountService) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) List(c *gin.Context) {
	q := newQuery(c)
	filter := repository.AccountFilter{
		Status:   c.Query("status"),
		BranchID: q.optInt("branch_id"),
		DueFrom:  q.date("due_from"),
		DueTo:    q.date("due_to"),
		Overdue:  q.boolean("overdue"),
		Page:     q.page(),
	}
	if !q.ok() {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Settle godoc
// @Summary Settles a payable or receivable
// @Description Amount defaults to the face value and date to today.
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param body body dto.SettleAccountRequest true "Settlement"
// @Success 200 {object} dto.AccountResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/finance/payables/{id}/settle [post]
func (h *AccountHandler) Settle(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.SettleAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Settle(c.Request.Context(), id, actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id, actorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Closings ─────────────────────────────────────────────────────────────────

type ClosingHandler struct{ svc service.ClosingService }

func NewClosingHandler(svc service.ClosingService) *ClosingHandler { return &ClosingHandler{svc: svc} }

// Generate godoc
// @Summary Generates a financial closing for a period
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.GenerateClosingRequest true "Period"
// @Success 201 {object} dto.ClosingResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/finance/closings [post]
func (h *ClosingHandler) Generate(c *gin.Context) {
	var req dto.GenerateClosingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateClosing(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClosingHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetClosing(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClosingHandler) List(c *gin.Context) {
	q := newQuery(c)
	filter := repository.ClosingFilter{
		IncludeCancelled: q.boolean("include_cancelled"),
		From:             q.date("from"),
		To:               q.date("to"),
		Page:             q.page(),
	}
	if !q.ok() {
		return
	}
	resp, err := h.svc.ListClosings(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClosingHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelClosing(c.Request.Context(), id, actorID(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportXLSX and ExportPDF render into a buffer first so a failed render
// still gets a JSON error instead of a truncated file.
func (h *ClosingHandler) ExportXLSX(c *gin.Context) {
	h.export(c, xlsxMIME, h.svc.ExportXLSX)
}

func (h *ClosingHandler) ExportPDF(c *gin.Context) {
	h.export(c, "application/pdf", h.svc.ExportPDF)
}
