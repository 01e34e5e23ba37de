package user

import (
	"context"
	"errors"
	"time"
)

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

const StatusActive = "active"

// ErrEmailTaken is returned by Repository.Create when the email already exists.
var ErrEmailTaken = errors.New("email already registered")

type Entity struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PhotoURL      string    `json:"photoURL"`
	Role          Role      `json:"role"`
	Status        string    `json:"status"`
	Suspended     bool      `json:"suspended"`
	SuspendReason string    `json:"suspendReason"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the fields a sync may overwrite. Nil fields are left
// untouched by the store.
type ProfileUpdate struct {
	Name     *string
	PhotoURL *string
	Status   *string
	Role     *Role
}

type Repository interface {
	Create(ctx context.Context, in Entity) (*Entity, error)
	GetByEmail(ctx context.Context, email string) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
	UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (*Entity, error)
	SetRole(ctx context.Context, id string, role Role) (*Entity, error)
	SetSuspension(ctx context.Context, id string, suspended bool, reason string) (*Entity, error)
}

func (r Role) Known() bool {
	switch r {
	case RoleBorrower, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a user may pick this role for themselves
// during sync.
func (r Role) SelfAssignable() bool {
	return r == RoleBorrower || r == RoleManager
}
