package api

import (
	"errors"
	"net/http"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/service"
	"bitwise74/finance-api/pkg/middleware"
	"bitwise74/finance-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// fail answers with the status matching err's kind. Details of internal
// errors only go to the log.
func fail(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.Internal {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if e.Kind == apperr.Upstream {
		zap.L().Error("Upstream failure", zap.Error(err), zap.String("requestID", requestID))
	} else {
		zap.L().Debug("Request rejected", zap.Error(err), zap.String("requestID", requestID))
	}

	body := gin.H{
		"error":     e.Msg,
		"requestID": requestID,
	}
	if len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}

	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}

// bind decodes the JSON body into dst and answers 400 itself when that fails
func bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fail(c, apperr.Invalid("Validation failed", validators.FieldMessages(verrs)))
		return false
	}

	fail(c, apperr.Wrap(apperr.Validation, "Invalid request body", err))
	return false
}

// caller returns the authenticated identity or answers 401
func caller(c *gin.Context) (service.Caller, bool) {
	who, ok := middleware.CallerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "Not authenticated",
			"requestID": c.GetString("requestID"),
		})
	}

	return who, ok
}
