package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loanlink/backend/internal/apperr"
)

type SyncInput struct {
	Email    string
	Name     string
	PhotoURL string
	Status   string
	// Role is nil when the payload carried no role field at all.
	Role *Role
	// Caller is the authenticated email behind the request, empty when
	// anonymous. Only the owner of an existing record may update it.
	Caller string
	// AllowPrivileged marks an admin caller: it may assign roles users cannot
	// pick for themselves and update any record.
	AllowPrivileged bool
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sync reconciles an authenticated identity with the stored profile. New
// users default to the borrower role; existing users keep their role unless
// the input explicitly carries one. The bool result reports whether a new
// record was created.
func (s *Service) Sync(ctx context.Context, in SyncInput) (*Entity, bool, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, false, apperr.Validation("email is required")
	}
	if in.Role != nil {
		role := Role(strings.ToLower(strings.TrimSpace(string(*in.Role))))
		if role == "" {
			return nil, false, apperr.Validation("role must not be empty")
		}
		if !role.SelfAssignable() && !in.AllowPrivileged {
			return nil, false, apperr.Forbidden("role cannot be self-assigned")
		}
		in.Role = &role
	}

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.updateProfile(ctx, email, in)
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, false, err
	}

	role := RoleBorrower
	if in.Role != nil {
		role = *in.Role
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusActive
	}
	now := s.now()
	created, err := s.repo.Create(ctx, Entity{
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, ErrEmailTaken) {
		// A concurrent sync inserted the same email first.
		return s.updateProfile(ctx, email, in)
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *Service) updateProfile(ctx context.Context, email string, in SyncInput) (*Entity, bool, error) {
	if !in.AllowPrivileged && NormalizeEmail(in.Caller) != email {
		return nil, false, apperr.Forbidden("cannot update another user's profile")
	}
	upd := ProfileUpdate{Role: in.Role}
	if v := strings.TrimSpace(in.Name); v != "" {
		upd.Name = &v
	}
	if v := strings.TrimSpace(in.PhotoURL); v != "" {
		upd.PhotoURL = &v
	}
	if v := strings.TrimSpace(in.Status); v != "" {
		upd.Status = &v
	}
	updated, err := s.repo.UpdateProfile(ctx, email, upd)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Entity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("user id is required")
	}
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context) ([]Entity, error) {
	return s.repo.List(ctx)
}

func (s *Service) SetRole(ctx context.Context, id string, role Role) (*Entity, error) {
	role = Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !role.Known() {
		return nil, apperr.Validation("role must be one of borrower, manager, admin")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("user id is required")
	}
	return s.repo.SetRole(ctx, strings.TrimSpace(id), role)
}

// SetSuspension toggles the suspension flag. Lifting a suspension clears the
// stored reason.
func (s *Service) SetSuspension(ctx context.Context, id string, suspended bool, reason string) (*Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("user id is required")
	}
	reason = strings.TrimSpace(reason)
	if suspended && reason == "" {
		return nil, apperr.Validation("suspend reason is required")
	}
	if !suspended {
		reason = ""
	}
	return s.repo.SetSuspension(ctx, strings.TrimSpace(id), suspended, reason)
}
