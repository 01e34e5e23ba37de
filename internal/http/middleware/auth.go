package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/domain/user"
)

const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
)

// UserLookup reloads the caller on every authenticated request so role
// changes and suspensions apply before the access token expires. A nil
// lookup trusts the token claims.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.Entity, error)
}

func RequireAuth(jwt *auth.JWTManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := accessClaims(c, jwt)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
			return
		}
		if !setPrincipal(c, users, claims) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid access cookie is present
// and lets anonymous requests through otherwise. Suspended callers are still
// refused.
func OptionalAuth(jwt *auth.JWTManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := accessClaims(c, jwt); ok {
			if !setPrincipal(c, users, claims) {
				return
			}
		}
		c.Next()
	}
}

func accessClaims(c *gin.Context, jwt *auth.JWTManager) (*auth.Claims, bool) {
	cookie, err := c.Request.Cookie(auth.AccessCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := jwt.Parse(cookie.Value)
	if err != nil || claims.Type != auth.TokenTypeAccess {
		return nil, false
	}
	return claims, true
}

// setPrincipal stores the caller on the context, aborting when the account is
// gone or suspended.
func setPrincipal(c *gin.Context, users UserLookup, claims *auth.Claims) bool {
	email, role := claims.Email, claims.Role
	if users != nil {
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if apperr.Is(err, apperr.KindNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
			return false
		}
		if err != nil {
			status, code, message := apperr.Public(err)
			c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
			return false
		}
		if u.Suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "account suspended"})
			return false
		}
		email, role = u.Email, string(u.Role)
	}
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUserEmail, email)
	c.Set(CtxUserRole, role)
	return true
}

// Principal returns the authenticated caller, if any.
func Principal(c *gin.Context) (auth.Principal, bool) {
	id := c.GetString(CtxUserID)
	if id == "" {
		return auth.Principal{}, false
	}
	return auth.Principal{UserID: id, Email: c.GetString(CtxUserEmail), Role: c.GetString(CtxUserRole)}, true
}
