package api

import (
	"net/http"

	"bitwise74/finance-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) UserAvatarUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	who, ok := caller(c)
	if !ok {
		return
	}

	// A missing part is reported by the validator as ErrNoFile
	fh, _ := c.FormFile("file")

	code, avatar, err := validators.AvatarValidator(fh, a.maxUploadSize)
	if err != nil {
		if code == http.StatusInternalServerError {
			c.AbortWithStatusJSON(code, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to validate avatar", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer avatar.File.Close()

	url, err := a.Accounts.SetAvatar(c.Request.Context(), who, avatar)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatarUrl": url,
	})
}

func (a *API) UserAvatarRemove(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	removed, err := a.Accounts.RemoveAvatar(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}
