// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bitwise74/finance-api/db"
	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/service"
	"bitwise74/finance-api/internal/storage"
	"bitwise74/finance-api/pkg/middleware"
	"bitwise74/finance-api/pkg/security"
	"bitwise74/finance-api/validators"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine

	Identity  *service.Identity
	TwoFactor *service.TwoFactor
	Sessions  *service.Sessions
	Reset     *service.PasswordReset
	Expenses  *service.Ledger[model.Expense, *model.Expense]
	Revenues  *service.Ledger[model.Revenue, *model.Revenue]
	Reports   *service.Reports
	Accounts  *service.Accounts

	maxUploadSize int64
}

// Deps are the outside resources the API is built on. NewRouter fills
// them from the config, tests pass their own.
type Deps struct {
	DB        *gorm.DB
	Mailer    service.Mailer
	Blobs     storage.Blob
	Hasher    security.PasswordHasher
	Providers []service.Provider

	// UploadDir is served under /uploads when set
	UploadDir string
}

// NewRouter opens every configured resource and builds the API on top of them
func NewRouter() (*API, error) {
	makeLogger(viper.GetString("app.log_level"))

	conn, err := db.New(viper.GetString("database.driver"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	blobs, err := storage.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}

	d := Deps{
		DB:    conn,
		Blobs: blobs,
		Mailer: service.NewSMTPMailer(service.SMTPConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			From:     viper.GetString("mail.sender_address"),
			Password: viper.GetString("mail.password"),
		}),
		Hasher: security.New(),
	}

	if id := viper.GetString("oauth.google.client_id"); id != "" {
		d.Providers = append(d.Providers, service.NewGoogle(viper.GetString("oauth.google.endpoint"), id))
	}

	if viper.GetString("storage.type") == "local" {
		d.UploadDir = viper.GetString("storage.local_dir")
	}

	return New(d)
}

// New wires the services and routes over d
func New(d Deps) (*API, error) {
	if err := validators.RegisterBindings(); err != nil {
		return nil, err
	}

	sessions := service.NewSessions(
		viper.GetString("jwt.secret"),
		time.Duration(viper.GetInt("jwt.ttl_hours"))*time.Hour,
		time.Duration(viper.GetInt("jwt.challenge_ttl_minutes"))*time.Minute,
	)

	providers := make(map[string]service.Provider, len(d.Providers))
	for _, p := range d.Providers {
		providers[p.Name()] = p
	}

	a := &API{
		DB:        d.DB,
		Sessions:  sessions,
		TwoFactor: service.NewTwoFactor(d.DB, d.Mailer, viper.GetString("twofactor.issuer")),
		Reset:     service.NewPasswordReset(d.DB, d.Hasher, d.Mailer),
		Expenses:  service.NewLedger[model.Expense](d.DB),
		Revenues:  service.NewLedger[model.Revenue](d.DB),
		Reports:   service.NewReports(d.DB),
		Identity: &service.Identity{
			DB:        d.DB,
			Hasher:    d.Hasher,
			Sessions:  sessions,
			Issuer:    viper.GetString("twofactor.issuer"),
			Providers: providers,
		},
		maxUploadSize: viper.GetInt64("upload.max_size"),
	}

	a.Accounts = &service.Accounts{
		DB:       d.DB,
		Blobs:    d.Blobs,
		Expenses: a.Expenses,
		Revenues: a.Revenues,
	}

	enforcer, err := middleware.NewEnforcer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("username"); v != "" {
					fields = append(fields, zap.String("username", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = a.maxUploadSize

	if d.UploadDir != "" {
		router.Static("/uploads", d.UploadDir)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetFloat64("security.rate_limit"),
		Burst:             viper.GetInt("security.rate_burst"),
	})
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled: viper.GetBool("cloudflare.turnstile.enabled"),
		Secret:  viper.GetString("cloudflare.turnstile.secret_token"),
	})
	auth := middleware.NewAuthMiddleware(sessions, a.Identity)
	authorize := middleware.Authorize(enforcer)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", cacheFor(5), a.Heartbeat)

		// GET /api/validate		-> Validates a session token
		main.GET("/validate", auth, authorize, a.Validate)
	}

	authGroup := main.Group("/auth", limiter.Middleware(), middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/register		-> Registers a new user
		authGroup.POST("/register", turnstile, a.AuthRegister)

		// POST /api/auth/login			-> First factor with username and password
		authGroup.POST("/login", a.AuthLogin)

		// POST /api/auth/oauth			-> First factor with an external identity token
		authGroup.POST("/oauth", a.AuthOAuth)

		// POST /api/auth/send-2fa-email-otp	-> Mails a one-time code
		authGroup.POST("/send-2fa-email-otp", a.AuthSendEmailCode)

		// POST /api/auth/verify-2fa		-> Second factor, returns a session token
		authGroup.POST("/verify-2fa", a.AuthVerifyTwoFactor)

		// POST /api/auth/verify-2fa-oauth	-> Second factor after an OAuth login
		authGroup.POST("/verify-2fa-oauth", a.AuthVerifyTwoFactorOAuth)

		// GET /api/auth/config			-> Public client configuration
		authGroup.GET("/config", cacheFor(60), a.AuthConfig)

		// POST /api/auth/forgot-password	-> Mails a password reset code
		authGroup.POST("/forgot-password", turnstile, a.AuthForgotPassword)

		// POST /api/auth/reset-password	-> Sets a new password with a reset code
		authGroup.POST("/reset-password", a.AuthResetPassword)
	}

	users := main.Group("/users", auth, authorize)
	{
		// GET /api/users/me		-> Returns the caller's account
		users.GET("/me", a.UserMe)

		// DELETE /api/users/me		-> Deletes the caller's account and data
		users.DELETE("/me", a.UserDelete)

		// POST /api/users/avatar	-> Uploads a new avatar
		users.POST("/avatar", middleware.BodySizeLimiter(a.maxUploadSize+1<<20), a.UserAvatarUpload)

		// DELETE /api/users/avatar	-> Removes the avatar
		users.DELETE("/avatar", a.UserAvatarRemove)
	}

	registerLedger(main.Group("/expenses", auth, authorize, middleware.BodySizeLimiter(1<<20)), a.Expenses, bindExpense)
	registerLedger(main.Group("/revenues", auth, authorize, middleware.BodySizeLimiter(1<<20)), a.Revenues, bindRevenue)

	reports := main.Group("/reports", auth, authorize)
	{
		// GET /api/reports/summary	-> Latest month totals and trends
		reports.GET("/summary", a.ReportSummary)

		// GET /api/reports/trend	-> Six months of growth
		reports.GET("/trend", a.ReportTrend)

		// GET /api/reports/breakdown	-> Expenses per category
		reports.GET("/breakdown", a.ReportBreakdown)
	}

	return a, nil
}

func makeLogger(level string) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
