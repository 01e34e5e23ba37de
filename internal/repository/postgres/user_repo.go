package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanlink/backend/internal/domain/user"
)

const userColumns = `id::text, email, name, photo_url, role, status, suspended, suspend_reason, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*user.Entity, error) {
	out := &user.Entity{}
	var role string
	if err := row.Scan(&out.ID, &out.Email, &out.Name, &out.PhotoURL, &role, &out.Status,
		&out.Suspended, &out.SuspendReason, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.Role = user.Role(role)
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, in user.Entity) (*user.Entity, error) {
	q := `
INSERT INTO users (email, name, photo_url, role, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + userColumns
	out, err := scanUser(r.pool.QueryRow(ctx, q, in.Email, in.Name, in.PhotoURL, string(in.Role), in.Status, in.CreatedAt, in.UpdatedAt))
	if isUniqueViolation(err) {
		return nil, user.ErrEmailTaken
	}
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.Entity, error) {
	out, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.Entity, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	out, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.Entity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, translate(err, "users")
	}
	defer rows.Close()

	out := make([]user.Entity, 0)
	for rows.Next() {
		item, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "users")
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "users")
	}
	return out, nil
}

// UpdateProfile overwrites only the non-nil fields; COALESCE keeps the rest.
func (r *UserRepository) UpdateProfile(ctx context.Context, email string, upd user.ProfileUpdate) (*user.Entity, error) {
	var role *string
	if upd.Role != nil {
		v := string(*upd.Role)
		role = &v
	}
	q := `
UPDATE users SET
  name = COALESCE($2, name),
  photo_url = COALESCE($3, photo_url),
  status = COALESCE($4, status),
  role = COALESCE($5, role),
  updated_at = NOW()
WHERE email = $1
RETURNING ` + userColumns
	out, err := scanUser(r.pool.QueryRow(ctx, q, email, upd.Name, upd.PhotoURL, upd.Status, role))
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role user.Role) (*user.Entity, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	out, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, uid, string(role)))
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}

func (r *UserRepository) SetSuspension(ctx context.Context, id string, suspended bool, reason string) (*user.Entity, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	out, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET suspended = $2, suspend_reason = $3, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		uid, suspended, reason))
	if err != nil {
		return nil, translate(err, "user")
	}
	return out, nil
}
