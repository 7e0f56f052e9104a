package middleware

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// routePolicies grants every role the authenticated API. ADMIN inherits
// everything USER may do.
var routePolicies = [][]string{
	{"USER", "/api/validate", "GET"},
	{"USER", "/api/users/*", "^(GET|POST|DELETE)$"},
	{"USER", "/api/expenses*", "^(GET|POST|PUT|DELETE)$"},
	{"USER", "/api/revenues*", "^(GET|POST|PUT|DELETE)$"},
	{"USER", "/api/reports/*", "^GET$"},
}

// NewEnforcer builds the role to route policy used by Authorize
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model, %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer, %w", err)
	}

	if _, err := e.AddPolicies(routePolicies); err != nil {
		return nil, fmt.Errorf("failed to add policies, %w", err)
	}

	if _, err := e.AddGroupingPolicy("ADMIN", "USER"); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance, %w", err)
	}

	return e, nil
}

// Authorize checks the caller's role against the route policy. It must run
// after NewAuthMiddleware.
func Authorize(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})
			return
		}

		allowed, err := e.Enforce(caller.Role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to enforce policy", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "You are not allowed to do this",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
