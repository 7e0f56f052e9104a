package api

import (
	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ledgerHandlers serves the CRUD endpoints of one ledger kind. Expenses and
// revenues only differ in their request body.
type ledgerHandlers[T any, P service.Record[T]] struct {
	ledger *service.Ledger[T, P]
	bind   func(c *gin.Context) (P, bool)
}

func registerLedger[T any, P service.Record[T]](g *gin.RouterGroup, l *service.Ledger[T, P], bind func(*gin.Context) (P, bool)) {
	h := &ledgerHandlers[T, P]{ledger: l, bind: bind}

	// GET /			-> Lists the caller's records, optionally in a date range
	g.GET("", h.List)

	// POST /			-> Creates a record
	g.POST("", h.Create)

	// GET /:id			-> Returns one record
	g.GET("/:id", h.Get)

	// PUT /:id			-> Replaces the editable fields of a record
	g.PUT("/:id", h.Update)

	// DELETE /:id		-> Deletes a record
	g.DELETE("/:id", h.Delete)
}
