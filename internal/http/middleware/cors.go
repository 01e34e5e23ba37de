package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginAllowList is the set of browser origins allowed to make credentialed
// requests.
type OriginAllowList map[string]struct{}

func NewOriginAllowList(origins []string) OriginAllowList {
	allowed := OriginAllowList{}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return allowed
}

func (l OriginAllowList) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := l[origin]
	return ok
}

// CORS answers credentialed cross-origin requests from the allow-list only.
// Requests from other origins get no CORS headers and are left to the
// browser to block.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := NewOriginAllowList(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed.Allows(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id, Stripe-Signature")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions && origin != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
