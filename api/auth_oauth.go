package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type oauthBody struct {
	Provider string `json:"provider" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

func (a *API) AuthOAuth(c *gin.Context) {
	var data oauthBody
	if !bind(c, &data) {
		return
	}

	outcome, err := a.Identity.OAuthLogin(c.Request.Context(), data.Provider, data.Token)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse(outcome))
}
