package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/domain/loan"
	"github.com/loanlink/backend/internal/http/middleware"
	"github.com/loanlink/backend/internal/numeric"
)

type LoanService interface {
	Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error)
	Update(ctx context.Context, id string, in loan.UpdateInput) (*loan.Entity, error)
	Get(ctx context.Context, id string) (*loan.Entity, error)
	List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error)
	ListHome(ctx context.Context) ([]loan.Entity, error)
	Delete(ctx context.Context, id string) error
}

type LoanHandler struct {
	loans  LoanService
	logger *slog.Logger
}

func NewLoanHandler(loans LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{loans: loans, logger: logger}
}

// loanRequest accepts interestRate and maxLimit as JSON numbers or numeric
// strings.
type loanRequest struct {
	Title             *string        `json:"title"`
	ShortDescription  *string        `json:"shortDescription"`
	Description       *string        `json:"description"`
	Category          *string        `json:"category"`
	InterestRate      numeric.Number `json:"interestRate"`
	MaxLimit          numeric.Number `json:"maxLimit"`
	Image             *string        `json:"image"`
	EMIPlans          *[]string      `json:"emiPlans"`
	RequiredDocuments *[]string      `json:"requiredDocuments"`
	ShowOnHome        *bool          `json:"showOnHome"`
}

func (h *LoanHandler) Create(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid loan payload")
		return
	}
	p, _ := middleware.Principal(c)
	item, err := h.loans.Create(c.Request.Context(), loan.CreateInput{
		Title:             deref(req.Title),
		ShortDescription:  deref(req.ShortDescription),
		Description:       deref(req.Description),
		Category:          deref(req.Category),
		InterestRate:      req.InterestRate,
		MaxLimit:          req.MaxLimit,
		Image:             deref(req.Image),
		EMIPlans:          derefList(req.EMIPlans),
		RequiredDocuments: derefList(req.RequiredDocuments),
		ShowOnHome:        req.ShowOnHome != nil && *req.ShowOnHome,
		CreatedBy:         p.Email,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "loan created", "loan": item})
}

func (h *LoanHandler) Update(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid loan payload")
		return
	}
	item, err := h.loans.Update(c.Request.Context(), c.Param("id"), loan.UpdateInput{
		Title:             req.Title,
		ShortDescription:  req.ShortDescription,
		Description:       req.Description,
		Category:          req.Category,
		InterestRate:      req.InterestRate,
		MaxLimit:          req.MaxLimit,
		Image:             req.Image,
		EMIPlans:          req.EMIPlans,
		RequiredDocuments: req.RequiredDocuments,
		ShowOnHome:        req.ShowOnHome,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "loan updated", "loan": item})
}

func (h *LoanHandler) Get(c *gin.Context) {
	item, err := h.loans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": item})
}

func (h *LoanHandler) List(c *gin.Context) {
	items, err := h.loans.List(c.Request.Context(), loan.ListFilter{
		Category:  c.Query("category"),
		CreatedBy: c.Query("createdBy"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LoanHandler) Home(c *gin.Context) {
	items, err := h.loans.ListHome(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LoanHandler) Delete(c *gin.Context) {
	if err := h.loans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "loan deleted"})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefList(s *[]string) []string {
	if s == nil {
		return nil
	}
	return *s
}
