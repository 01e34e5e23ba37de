package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/loanlink/backend/internal/http/middleware"
)

type UserService interface {
	Sync(ctx context.Context, in user.SyncInput) (*user.Entity, bool, error)
	GetByEmail(ctx context.Context, email string) (*user.Entity, error)
	List(ctx context.Context) ([]user.Entity, error)
	SetRole(ctx context.Context, id string, role user.Role) (*user.Entity, error)
	SetSuspension(ctx context.Context, id string, suspended bool, reason string) (*user.Entity, error)
}

type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type syncUserRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	PhotoURL string  `json:"photoURL"`
	Status   string  `json:"status"`
	Role     *string `json:"role"`
}

// Sync upserts the caller's profile. A missing role field leaves the stored
// role alone. Anonymous callers may only create new records.
func (h *UserHandler) Sync(c *gin.Context) {
	var req syncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid user payload")
		return
	}

	in := user.SyncInput{Email: req.Email, Name: req.Name, PhotoURL: req.PhotoURL, Status: req.Status}
	if req.Role != nil {
		role := user.Role(*req.Role)
		in.Role = &role
	}
	if p, ok := middleware.Principal(c); ok {
		if in.Email == "" {
			in.Email = p.Email
		}
		in.Caller = p.Email
		in.AllowPrivileged = p.Role == string(user.RoleAdmin)
	}

	u, created, err := h.users.Sync(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "user created", "user": u})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated", "user": u})
}

func (h *UserHandler) List(c *gin.Context) {
	items, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetByEmail is mounted on /users/:id since gin requires one wildcard name
// per segment; the value is the email address.
func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.users.GetByEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UserHandler) SetRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), c.Param("id"), user.Role(req.Role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated", "user": u})
}

func (h *UserHandler) SetSuspension(c *gin.Context) {
	var req struct {
		Suspended *bool  `json:"suspended" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "suspended is required")
		return
	}
	u, err := h.users.SetSuspension(c.Request.Context(), c.Param("id"), *req.Suspended, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suspension updated", "user": u})
}
