package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("requestID"))
	})

	w := serve(r, http.MethodGet, "/", nil)
	assert.Len(t, w.Body.String(), 12)
	assert.Equal(t, w.Body.String(), w.Header().Get(requestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})

	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/", ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", nil).Code)

	other := http.Header{"X-Forwarded-For": {"10.0.0.9"}}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", other).Code)
}

func TestRateLimiterForgetsIdleVisitors(t *testing.T) {
	now := time.Now()
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1, TTL: time.Minute})
	l.now = func() time.Time { return now }

	l.get("1.1.1.1")
	l.get("2.2.2.2")
	require.Len(t, l.visitors, 2)

	now = now.Add(2 * time.Minute)
	l.get("2.2.2.2")

	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "2.2.2.2")
}

func TestTurnstile(t *testing.T) {
	verify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		json.NewEncoder(w).Encode(turnstileResponse{Success: r.PostForm.Get("response") == "good"})
	}))
	defer verify.Close()

	r := gin.New()
	r.GET("/", NewTurnstileMiddleware(TurnstileConfig{Enabled: true, Secret: "s", VerifyURL: verify.URL}), ok)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", http.Header{"Turnstiletoken": {"bad"}}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", http.Header{"Turnstiletoken": {"good"}}).Code)

	disabled := gin.New()
	disabled.GET("/", NewTurnstileMiddleware(TurnstileConfig{}), ok)
	assert.Equal(t, http.StatusOK, serve(disabled, http.MethodGet, "/", nil).Code)
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", BodySizeLimiter(4), ok)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too long"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

type fakeSessions map[string]*service.Claims

func (f fakeSessions) Parse(token string) (*service.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}

	return nil, service.ErrInvalidToken
}

type fakeUsers map[string]*model.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}

	if id == "broken" {
		return nil, errors.New("db down")
	}

	return nil, service.ErrUserNotFound
}

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()

	enforcer, err := NewEnforcer()
	require.NoError(t, err)

	sessions := fakeSessions{
		"ann-token":    {UserID: "1", Username: "ann", Role: model.RoleUser},
		"admin-token":  {UserID: "2", Username: "root", Role: model.RoleAdmin},
		"ghost-token":  {UserID: "4", Username: "ghost", Role: model.RoleUser},
		"broken-token": {UserID: "broken", Username: "broken", Role: model.RoleUser},
		"odd-token":    {UserID: "3", Username: "odd", Role: "GUEST"},

		// Issued to an ann that deleted her account before the current ann registered
		"stale-ann-token": {UserID: "9", Username: "ann", Role: model.RoleUser},
	}
	users := fakeUsers{
		"1": {ID: "1", Username: "ann", Role: model.RoleUser},
		"2": {ID: "2", Username: "root", Role: model.RoleAdmin},
		"3": {ID: "3", Username: "odd", Role: "GUEST"},
	}

	r := gin.New()
	r.Use(NewRequestIDMiddleware())

	api := r.Group("/api", NewAuthMiddleware(sessions, users), Authorize(enforcer))
	api.GET("/expenses", func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, caller.UserID)
	})
	api.PATCH("/expenses", ok)

	return r
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter(t)

	w := serve(r, http.MethodGet, "/api/expenses", bearer("ann-token"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/expenses", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/expenses", http.Header{"Authorization": {"ann-token"}}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/expenses", bearer("forged")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/expenses", bearer("ghost-token")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/expenses", bearer("stale-ann-token")).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/api/expenses", bearer("broken-token")).Code)
}

func TestAuthorize(t *testing.T) {
	r := authRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/expenses", bearer("admin-token")).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/expenses", bearer("odd-token")).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPatch, "/api/expenses", bearer("ann-token")).Code)
}
