package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) ReportSummary(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	summary, err := a.Reports.Summary(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (a *API) ReportTrend(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	points, err := a.Reports.SixMonthTrend(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

func (a *API) ReportBreakdown(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	categories, err := a.Reports.CategoryBreakdown(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}
