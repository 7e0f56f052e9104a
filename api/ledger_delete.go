package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *ledgerHandlers[T, P]) Delete(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	if err := h.ledger.Delete(c.Request.Context(), who, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
