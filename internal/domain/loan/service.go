package loan

import (
	"context"
	"strings"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/numeric"
)

type CreateInput struct {
	Title             string
	ShortDescription  string
	Description       string
	Category          string
	InterestRate      numeric.Number
	MaxLimit          numeric.Number
	Image             string
	EMIPlans          []string
	RequiredDocuments []string
	ShowOnHome        bool
	CreatedBy         string
}

// UpdateInput mirrors CreateInput with every field optional.
type UpdateInput struct {
	Title             *string
	ShortDescription  *string
	Description       *string
	Category          *string
	InterestRate      numeric.Number
	MaxLimit          numeric.Number
	Image             *string
	EMIPlans          *[]string
	RequiredDocuments *[]string
	ShowOnHome        *bool
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	rate, err := coerce("interestRate", in.InterestRate, true)
	if err != nil {
		return nil, err
	}
	limit, err := coerce("maxLimit", in.MaxLimit, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, Entity{
		Title:             title,
		ShortDescription:  strings.TrimSpace(in.ShortDescription),
		Description:       strings.TrimSpace(in.Description),
		Category:          strings.TrimSpace(in.Category),
		InterestRate:      *rate,
		MaxLimit:          *limit,
		Image:             strings.TrimSpace(in.Image),
		EMIPlans:          cleanList(in.EMIPlans),
		RequiredDocuments: cleanList(in.RequiredDocuments),
		ShowOnHome:        in.ShowOnHome,
		CreatedBy:         strings.ToLower(strings.TrimSpace(in.CreatedBy)),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("loan id is required")
	}
	rate, err := coerce("interestRate", in.InterestRate, false)
	if err != nil {
		return nil, err
	}
	limit, err := coerce("maxLimit", in.MaxLimit, false)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title must not be empty")
	}

	p := Patch{
		Title:             trimmed(in.Title),
		ShortDescription:  trimmed(in.ShortDescription),
		Description:       trimmed(in.Description),
		Category:          trimmed(in.Category),
		InterestRate:      rate,
		MaxLimit:          limit,
		Image:             trimmed(in.Image),
		ShowOnHome:        in.ShowOnHome,
		EMIPlans:          cleanListPtr(in.EMIPlans),
		RequiredDocuments: cleanListPtr(in.RequiredDocuments),
	}
	if p.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	return s.repo.Update(ctx, id, p, s.now())
}

func (s *Service) Get(ctx context.Context, id string) (*Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("loan id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.CreatedBy = strings.ToLower(strings.TrimSpace(f.CreatedBy))
	return s.repo.List(ctx, f)
}

// ListHome returns the loans flagged for the public landing page.
func (s *Service) ListHome(ctx context.Context) ([]Entity, error) {
	show := true
	return s.repo.List(ctx, ListFilter{ShowOnHome: &show})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Validation("loan id is required")
	}
	return s.repo.Delete(ctx, id)
}

func coerce(field string, n numeric.Number, required bool) (*float64, error) {
	if !n.Valid {
		if required {
			return nil, apperr.Validation(field + " is required")
		}
		return nil, nil
	}
	f, err := n.Float()
	if err != nil {
		return nil, apperr.Validation(field + " must be a number")
	}
	if f < 0 {
		return nil, apperr.Validation(field + " must not be negative")
	}
	return &f, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	return &out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cleanListPtr(in *[]string) *[]string {
	if in == nil {
		return nil
	}
	out := cleanList(*in)
	return &out
}
