package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/domain/application"
	"github.com/loanlink/backend/internal/http/middleware"
	"github.com/loanlink/backend/internal/numeric"
)

type ApplicationService interface {
	Create(ctx context.Context, in application.CreateInput) (*application.Entity, error)
	Get(ctx context.Context, id string) (*application.Entity, error)
	List(ctx context.Context, status application.Status) ([]application.Entity, error)
	ListByApplicant(ctx context.Context, email string) ([]application.Entity, error)
	ListPending(ctx context.Context) ([]application.Entity, error)
	Cancel(ctx context.Context, id string) (*application.Entity, error)
	UpdateStatus(ctx context.Context, id string, status application.Status) (*application.Entity, error)
	InitiatePayment(ctx context.Context, id string) (*application.FeeIntent, error)
	ConfirmPayment(ctx context.Context, id string) (*application.Entity, error)
	Delete(ctx context.Context, id string) error
}

type ApplicationHandler struct {
	apps   ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(apps ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

type createApplicationRequest struct {
	ApplicantEmail string         `json:"applicantEmail"`
	ApplicantName  string         `json:"applicantName"`
	LoanID         string         `json:"loanId"`
	Amount         numeric.Number `json:"amount"`
	EMIPlan        string         `json:"emiPlan"`
	Reason         string         `json:"reason"`
	Phone          string         `json:"phone"`
	NationalID     string         `json:"nationalId"`
	IncomeSource   string         `json:"incomeSource"`
	MonthlyIncome  numeric.Number `json:"monthlyIncome"`
	Address        string         `json:"address"`
	Notes          string         `json:"notes"`
}

// Create files an application. A signed-in caller always applies as
// themselves.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid application payload")
		return
	}
	email := req.ApplicantEmail
	if p, ok := middleware.Principal(c); ok && p.Email != "" {
		email = p.Email
	}

	app, err := h.apps.Create(c.Request.Context(), application.CreateInput{
		ApplicantEmail: email,
		ApplicantName:  req.ApplicantName,
		LoanID:         req.LoanID,
		Amount:         req.Amount,
		EMIPlan:        req.EMIPlan,
		Reason:         req.Reason,
		Phone:          req.Phone,
		NationalID:     req.NationalID,
		IncomeSource:   req.IncomeSource,
		MonthlyIncome:  req.MonthlyIncome,
		Address:        req.Address,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "application submitted", "application": app})
}

func (h *ApplicationHandler) List(c *gin.Context) {
	status := application.Status("")
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = application.ParseStatus(raw)
	}
	items, err := h.apps.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ApplicationHandler) Pending(c *gin.Context) {
	items, err := h.apps.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ApplicationHandler) Mine(c *gin.Context) {
	p, _ := middleware.Principal(c)
	h.listFor(c, p.Email)
}

func (h *ApplicationHandler) ByApplicant(c *gin.Context) {
	p, _ := middleware.Principal(c)
	email := c.Param("email")
	if !isStaff(p.Role) && !strings.EqualFold(strings.TrimSpace(email), p.Email) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "cannot view another applicant's applications"})
		return
	}
	h.listFor(c, email)
}

func (h *ApplicationHandler) listFor(c *gin.Context, email string) {
	items, err := h.apps.ListByApplicant(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, ok := h.load(c, func(p auth.Principal, app *application.Entity) bool {
		return isStaff(p.Role) || owns(p, app)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

func (h *ApplicationHandler) Cancel(c *gin.Context) {
	app, ok := h.load(c, func(p auth.Principal, app *application.Entity) bool {
		return p.Role == "admin" || owns(p, app)
	})
	if !ok {
		return
	}
	updated, err := h.apps.Cancel(c.Request.Context(), app.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application cancelled", "application": updated})
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	updated, err := h.apps.UpdateStatus(c.Request.Context(), c.Param("id"), application.ParseStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application status updated", "application": updated})
}

func (h *ApplicationHandler) Pay(c *gin.Context) {
	app, ok := h.load(c, owns)
	if !ok {
		return
	}
	intent, err := h.apps.InitiatePayment(c.Request.Context(), app.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "payment initiated",
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

func (h *ApplicationHandler) ConfirmPayment(c *gin.Context) {
	app, ok := h.load(c, owns)
	if !ok {
		return
	}
	updated, err := h.apps.ConfirmPayment(c.Request.Context(), app.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application fee paid", "application": updated})
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.apps.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application deleted"})
}

// load fetches the application named in the path and checks the caller may
// act on it.
func (h *ApplicationHandler) load(c *gin.Context, allowed func(auth.Principal, *application.Entity) bool) (*application.Entity, bool) {
	p, _ := middleware.Principal(c)
	app, err := h.apps.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	if !allowed(p, app) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "not allowed to act on this application"})
		return nil, false
	}
	return app, true
}

func owns(p auth.Principal, app *application.Entity) bool {
	return p.Email != "" && strings.EqualFold(p.Email, app.ApplicantEmail)
}
