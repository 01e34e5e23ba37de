package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/loanlink/backend/internal/http/middleware"
)

type AuthService interface {
	Login(ctx context.Context, idToken, userAgent, ipAddress string) (*auth.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*auth.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*user.Entity, error)
}

type AuthHandler struct {
	authService AuthService
	cookieCfg   auth.CookieConfig
	accessTTL   time.Duration
	refreshTTL  time.Duration
	logger      *slog.Logger
}

type loginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

func NewAuthHandler(authService AuthService, cookieCfg auth.CookieConfig, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookieCfg: cookieCfg, accessTTL: accessTTL, refreshTTL: refreshTTL, logger: logger}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "idToken is required")
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.IDToken, c.GetHeader("User-Agent"), auth.ClientIP(c.Request))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	auth.SetAuthCookies(c.Writer, h.cookieCfg, tokens.AccessToken, tokens.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, gin.H{
		"message": "signed in",
		"user":    tokens.User,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, err := c.Request.Cookie(auth.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing refresh cookie"})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), cookie.Value, c.GetHeader("User-Agent"), auth.ClientIP(c.Request))
	if err != nil {
		auth.ClearAuthCookies(c.Writer, h.cookieCfg)
		respondError(c, h.logger, err)
		return
	}

	auth.SetAuthCookies(c.Writer, h.cookieCfg, tokens.AccessToken, tokens.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, gin.H{"message": "session refreshed", "user": tokens.User})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(auth.RefreshCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.authService.Logout(c.Request.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout revoke failed", "error", err)
		}
	}
	auth.ClearAuthCookies(c.Writer, h.cookieCfg)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
		return
	}

	u, err := h.authService.Me(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
