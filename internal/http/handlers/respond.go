package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/http/middleware"
)

// respondError is the single place where errors become HTTP responses.
// Upstream failures are logged with their cause and reported generically.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code, message := apperr.Public(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.CtxRequestID),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": message})
}

func isStaff(p string) bool {
	return p == "manager" || p == "admin"
}
