package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// AuthConfig exposes the values a login page needs before anyone is signed in
func (a *API) AuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"googleClientId":   viper.GetString("oauth.google.client_id"),
		"turnstileEnabled": viper.GetBool("cloudflare.turnstile.enabled"),
	})
}
