package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/config"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/loanlink/backend/internal/http/handlers"
	"github.com/loanlink/backend/internal/http/middleware"
	"github.com/loanlink/backend/internal/version"
	"github.com/loanlink/backend/internal/ws"
)

// multipartOverhead is allowed on top of the image size for form framing.
const multipartOverhead = 64 << 10

type Dependencies struct {
	Store              handlers.Pinger
	Cache              handlers.Pinger
	JWTManager         *auth.JWTManager
	Users              middleware.UserLookup
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	LoanHandler        *handlers.LoanHandler
	ApplicationHandler *handlers.ApplicationHandler
	PaymentHandler     *handlers.PaymentHandler
	UploadHandler      *handlers.UploadHandler
	WSHandler          *ws.Handler
	Metrics            MetricsSink
	Limiter            middleware.Limiter
}

type MetricsSink interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	health := handlers.NewHealthHandler(deps.Store, deps.Cache)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	v1 := r.Group("/v1")
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter, logger))
	}
	api := v1.Group("", middleware.RequestBodyLimit(cfg.RequestBodyLimit))

	requireAuth := middleware.RequireAuth(deps.JWTManager, deps.Users)
	optionalAuth := middleware.OptionalAuth(deps.JWTManager, deps.Users)
	staff := middleware.RequireRole(string(user.RoleManager), string(user.RoleAdmin))
	admin := middleware.RequireRole(string(user.RoleAdmin))

	if deps.AuthHandler != nil {
		authGroup := api.Group("/auth")
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)
		authGroup.GET("/me", requireAuth, deps.AuthHandler.Me)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users")
		users.POST("", optionalAuth, deps.UserHandler.Sync)
		users.GET("", requireAuth, admin, deps.UserHandler.List)
		users.GET("/:id", deps.UserHandler.GetByEmail)
		users.PUT("/:id/role", requireAuth, admin, deps.UserHandler.SetRole)
		users.PUT("/:id/suspend", requireAuth, admin, deps.UserHandler.SetSuspension)
	}

	if deps.LoanHandler != nil {
		loans := api.Group("/loans")
		loans.GET("", deps.LoanHandler.List)
		loans.GET("/home", deps.LoanHandler.Home)
		loans.GET("/:id", deps.LoanHandler.Get)
		loans.POST("", requireAuth, staff, deps.LoanHandler.Create)
		loans.PUT("/:id", requireAuth, staff, deps.LoanHandler.Update)
		loans.DELETE("/:id", requireAuth, staff, deps.LoanHandler.Delete)
	}

	if deps.ApplicationHandler != nil {
		apps := api.Group("/loan-applications")
		apps.POST("", optionalAuth, deps.ApplicationHandler.Create)
		apps.GET("", requireAuth, staff, deps.ApplicationHandler.List)
		apps.GET("/pending", requireAuth, staff, deps.ApplicationHandler.Pending)
		apps.GET("/mine", requireAuth, deps.ApplicationHandler.Mine)
		apps.GET("/user/:email", requireAuth, deps.ApplicationHandler.ByApplicant)
		apps.GET("/:id", requireAuth, deps.ApplicationHandler.Get)
		apps.PUT("/:id/cancel", requireAuth, deps.ApplicationHandler.Cancel)
		apps.PUT("/:id/status", requireAuth, staff, deps.ApplicationHandler.UpdateStatus)
		apps.POST("/:id/pay", requireAuth, deps.ApplicationHandler.Pay)
		apps.POST("/:id/confirm-payment", requireAuth, deps.ApplicationHandler.ConfirmPayment)
		apps.DELETE("/:id", requireAuth, admin, deps.ApplicationHandler.Delete)
	}

	if deps.PaymentHandler != nil {
		api.POST("/payments/webhook", deps.PaymentHandler.Webhook)
	}

	if deps.UploadHandler != nil {
		limit := cfg.UploadMaxBytes
		if limit > 0 {
			limit += multipartOverhead
		}
		v1.POST("/uploads/images", middleware.RequestBodyLimit(limit), requireAuth, deps.UploadHandler.UploadImage)
	}

	if deps.WSHandler != nil {
		v1.GET("/ws", requireAuth, deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "route not found"})
	})

	return r
}
