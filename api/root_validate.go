package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Validate confirms the bearer token and tells the client who it belongs to
func (a *API) Validate(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": who.Username,
		"role":     who.Role,
	})
}
