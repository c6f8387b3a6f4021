package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type exportFunc func(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)

func (h *ClosingHandler) export(c *gin.Context, contentType string, render exportFunc) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	name, err := render(c.Request.Context(), id, &buf)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
