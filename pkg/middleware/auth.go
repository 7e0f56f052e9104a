package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const callerKey = "caller"

type SessionParser interface {
	Parse(token string) (*service.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware accepts "Authorization: Bearer <token>" session tokens
// and stores the resolved service.Caller in the context
func NewAuthMiddleware(sessions SessionParser, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing bearer token",
				"requestID": requestID,
			})
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		// The account may have been deleted since the token was issued.
		// Its username may belong to someone else by now.
		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Authorization token invalid",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set(callerKey, service.Caller{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		})
		c.Set("username", user.Username)
		c.Next()
	}
}

// CallerFrom returns the identity NewAuthMiddleware stored
func CallerFrom(c *gin.Context) (service.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return service.Caller{}, false
	}

	caller, ok := v.(service.Caller)
	return caller, ok
}
