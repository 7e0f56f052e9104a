package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) UserMe(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	user, err := a.Accounts.Me(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (a *API) UserDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	who, ok := caller(c)
	if !ok {
		return
	}

	if err := a.Accounts.Delete(c.Request.Context(), who); err != nil {
		fail(c, err)
		return
	}

	zap.L().Info("Account deleted", zap.String("username", who.Username), zap.String("requestID", requestID))
	c.Status(http.StatusNoContent)
}
