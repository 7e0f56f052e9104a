package api

import (
	"context"
	"net/http"

	"bitwise74/finance-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// factorSubject names the user a second factor is for. The challenge from
// the first factor is preferred, username and password are accepted for
// clients that never kept it.
type factorSubject struct {
	Challenge string `json:"challenge"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

func (a *API) resolveSubject(ctx context.Context, s factorSubject) (*model.User, error) {
	if s.Challenge != "" {
		return a.Identity.FromChallenge(ctx, s.Challenge)
	}

	return a.Identity.Authenticate(ctx, s.Username, s.Password)
}

type verifyBody struct {
	factorSubject
	Code        string `json:"code"`
	UseEmailOTP bool   `json:"useEmailOtp"`
}

type verifyOAuthBody struct {
	Challenge   string `json:"challenge" binding:"required"`
	Code        string `json:"code"`
	UseEmailOTP bool   `json:"useEmailOtp"`
}

func (a *API) AuthSendEmailCode(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data factorSubject
	if !bind(c, &data) {
		return
	}

	user, err := a.resolveSubject(c.Request.Context(), data)
	if err != nil {
		fail(c, err)
		return
	}

	if err := a.TwoFactor.SendEmailCode(c.Request.Context(), user); err != nil {
		fail(c, err)
		return
	}

	zap.L().Debug("Sent two-factor email code", zap.String("username", user.Username), zap.String("requestID", requestID))
	c.JSON(http.StatusOK, gin.H{
		"message": "A verification code has been sent to your email",
	})
}

func (a *API) AuthVerifyTwoFactor(c *gin.Context) {
	var data verifyBody
	if !bind(c, &data) {
		return
	}

	a.verifyTwoFactor(c, data.factorSubject, data.Code, data.UseEmailOTP)
}

// AuthVerifyTwoFactorOAuth is verify-2fa for OAuth accounts, which have no
// password and so always carry the challenge
func (a *API) AuthVerifyTwoFactorOAuth(c *gin.Context) {
	var data verifyOAuthBody
	if !bind(c, &data) {
		return
	}

	a.verifyTwoFactor(c, factorSubject{Challenge: data.Challenge}, data.Code, data.UseEmailOTP)
}

func (a *API) verifyTwoFactor(c *gin.Context, s factorSubject, code string, useEmailOTP bool) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	user, err := a.resolveSubject(ctx, s)
	if err != nil {
		fail(c, err)
		return
	}

	verified, err := a.TwoFactor.Verify(ctx, user, code, useEmailOTP)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := a.Sessions.Issue(verified)
	if err != nil {
		fail(c, err)
		return
	}

	zap.L().Info("User logged in", zap.String("username", user.Username), zap.String("requestID", requestID))
	c.JSON(http.StatusOK, gin.H{
		"message": "2FA verified successfully",
		"token":   token,
	})
}
