package memory

import (
	"context"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/user"
)

type userRecord struct {
	entity user.Entity
	seq    int64
}

type UserRepository struct {
	store *Store
	seq   int64
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(_ context.Context, in user.Entity) (*user.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.users {
		if rec.entity.Email == in.Email {
			return nil, user.ErrEmailTaken
		}
	}
	r.seq++
	in.ID = newID()
	r.store.users[in.ID] = &userRecord{entity: in, seq: r.seq}
	out := in
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec := r.byEmail(email)
	if rec == nil {
		return nil, apperr.NotFound("user not found")
	}
	out := rec.entity
	return &out, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*user.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	out := rec.entity
	return &out, nil
}

func (r *UserRepository) List(_ context.Context) ([]user.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	recs := make([]*userRecord, 0, len(r.store.users))
	for _, rec := range r.store.users {
		recs = append(recs, rec)
	}
	newestFirst(recs, func(rec *userRecord) int64 { return rec.seq })
	out := make([]user.Entity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.entity)
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, email string, upd user.ProfileUpdate) (*user.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec := r.byEmail(email)
	if rec == nil {
		return nil, apperr.NotFound("user not found")
	}
	if upd.Name != nil {
		rec.entity.Name = *upd.Name
	}
	if upd.PhotoURL != nil {
		rec.entity.PhotoURL = *upd.PhotoURL
	}
	if upd.Status != nil {
		rec.entity.Status = *upd.Status
	}
	if upd.Role != nil {
		rec.entity.Role = *upd.Role
	}
	rec.entity.UpdatedAt = time.Now().UTC()
	out := rec.entity
	return &out, nil
}

func (r *UserRepository) SetRole(_ context.Context, id string, role user.Role) (*user.Entity, error) {
	return r.mutate(id, func(u *user.Entity) { u.Role = role })
}

func (r *UserRepository) SetSuspension(_ context.Context, id string, suspended bool, reason string) (*user.Entity, error) {
	return r.mutate(id, func(u *user.Entity) {
		u.Suspended = suspended
		u.SuspendReason = reason
	})
}

func (r *UserRepository) mutate(id string, fn func(*user.Entity)) (*user.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	fn(&rec.entity)
	rec.entity.UpdatedAt = time.Now().UTC()
	out := rec.entity
	return &out, nil
}

func (r *UserRepository) byEmail(email string) *userRecord {
	for _, rec := range r.store.users {
		if rec.entity.Email == email {
			return rec
		}
	}
	return nil
}
