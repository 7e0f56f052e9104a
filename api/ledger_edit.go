package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *ledgerHandlers[T, P]) Get(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	rec, err := h.ledger.Get(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *ledgerHandlers[T, P]) Update(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	update, ok := h.bind(c)
	if !ok {
		return
	}

	rec, err := h.ledger.Update(c.Request.Context(), who, c.Param("id"), update)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}
