package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type forgotPasswordBody struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordBody struct {
	Email       string `json:"email" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (a *API) AuthForgotPassword(c *gin.Context) {
	var data forgotPasswordBody
	if !bind(c, &data) {
		return
	}

	if err := a.Reset.RequestReset(c.Request.Context(), data.Email); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A password reset code has been sent to your email",
	})
}

func (a *API) AuthResetPassword(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data resetPasswordBody
	if !bind(c, &data) {
		return
	}

	if err := a.Reset.CompleteReset(c.Request.Context(), data.Email, data.Token, data.NewPassword); err != nil {
		fail(c, err)
		return
	}

	zap.L().Info("Password reset", zap.String("requestID", requestID))
	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset",
	})
}
