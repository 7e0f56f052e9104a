package api

import (
	"net/http"

	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpassword"`
}

func (a *API) AuthRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if !bind(c, &data) {
		return
	}

	user, err := a.Identity.Register(c.Request.Context(), service.RegisterInput{
		Username: data.Username,
		Email:    data.Email,
		Password: data.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	zap.L().Info("User registered", zap.String("username", user.Username), zap.String("requestID", requestID))
	c.JSON(http.StatusOK, user)
}
