package handler

import (
	"net/http"

	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

// List godoc
// @Summary Lists audit records, newest first
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param entity query string false "Entity name, e.g. cash_session"
// @Param entity_id query string false "Entity ID"
// @Param action query string false "create, update, delete or status_change"
// @Router /v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	q := newQuery(c)
	filter := repository.AuditFilter{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Action:   c.Query("action"),
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
