package api

import (
	"net/http"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *ledgerHandlers[T, P]) List(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	start, err := dateQuery(c, "startDate")
	if err != nil {
		fail(c, err)
		return
	}

	end, err := dateQuery(c, "endDate")
	if err != nil {
		fail(c, err)
		return
	}

	r, err := service.NewDateRange(start, end)
	if err != nil {
		fail(c, err)
		return
	}

	records, err := h.ledger.List(c.Request.Context(), who, r)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// dateQuery reads an optional YYYY-MM-DD query parameter
func dateQuery(c *gin.Context, name string) (*model.Date, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}

	d, err := model.ParseDate(v)
	if err != nil {
		return nil, apperr.Invalid("Invalid date", map[string]string{name: "must be a date in YYYY-MM-DD format"})
	}

	return &d, nil
}
