package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *ledgerHandlers[T, P]) Create(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	rec, ok := h.bind(c)
	if !ok {
		return
	}

	created, err := h.ledger.Create(c.Request.Context(), who, rec)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
