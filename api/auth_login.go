package api

import (
	"net/http"

	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Requires2FA bool   `json:"requires2fa,omitempty"`
	Setup2FA    bool   `json:"setup2fa,omitempty"`
	Username    string `json:"username"`
	Secret      string `json:"secret,omitempty"`
	QRURL       string `json:"qrUrl,omitempty"`
	Challenge   string `json:"challenge"`
}

func newLoginResponse(o *service.LoginOutcome) loginResponse {
	return loginResponse{
		Requires2FA: o.Kind == service.RequiresTwoFactor,
		Setup2FA:    o.Kind == service.SetupRequired,
		Username:    o.Username,
		Secret:      o.Secret,
		QRURL:       o.ProvisioningURI,
		Challenge:   o.Challenge,
	}
}

func (a *API) AuthLogin(c *gin.Context) {
	var data loginBody
	if !bind(c, &data) {
		return
	}

	outcome, err := a.Identity.Login(c.Request.Context(), data.Username, data.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse(outcome))
}
