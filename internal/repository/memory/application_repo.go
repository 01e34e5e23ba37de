package memory

import (
	"context"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
)

type applicationRecord struct {
	entity application.Entity
	seq    int64
}

type ApplicationRepository struct {
	store *Store
	seq   int64
}

func NewApplicationRepository(store *Store) *ApplicationRepository {
	return &ApplicationRepository{store: store}
}

func (r *ApplicationRepository) Create(_ context.Context, in application.Entity) (*application.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.seq++
	in.ID = newID()
	r.store.applications[in.ID] = &applicationRecord{entity: in, seq: r.seq}
	out := in
	return &out, nil
}

func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*application.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.applications[id]
	if !ok {
		return nil, apperr.NotFound("loan application not found")
	}
	out := rec.entity
	return &out, nil
}

func (r *ApplicationRepository) GetByPaymentIntent(_ context.Context, intentID string) (*application.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, rec := range r.store.applications {
		if rec.entity.PaymentIntentID == intentID {
			out := rec.entity
			return &out, nil
		}
	}
	return nil, apperr.NotFound("loan application not found")
}

func (r *ApplicationRepository) List(_ context.Context, f application.ListFilter) ([]application.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	recs := make([]*applicationRecord, 0, len(r.store.applications))
	for _, rec := range r.store.applications {
		if f.ApplicantEmail != "" && rec.entity.ApplicantEmail != f.ApplicantEmail {
			continue
		}
		if f.Status != "" && rec.entity.Status != f.Status {
			continue
		}
		recs = append(recs, rec)
	}
	newestFirst(recs, func(rec *applicationRecord) int64 { return rec.seq })
	out := make([]application.Entity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.entity)
	}
	return out, nil
}

func (r *ApplicationRepository) Cancel(_ context.Context, id string, cancelledAt time.Time) (*application.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.applications[id]
	if !ok {
		return nil, apperr.NotFound("loan application not found")
	}
	if rec.entity.Status != application.StatusPending {
		return nil, application.ErrNotPending
	}
	rec.entity.Status = application.StatusCancelled
	rec.entity.CancelledAt = &cancelledAt
	out := rec.entity
	return &out, nil
}

func (r *ApplicationRepository) SetDecision(_ context.Context, id string, status application.Status, approvedAt *time.Time) (*application.Entity, error) {
	return r.mutate(id, func(e *application.Entity) {
		e.Status = status
		e.ApprovedAt = approvedAt
	})
}

func (r *ApplicationRepository) SetPaymentIntent(_ context.Context, id, intentID string) (*application.Entity, error) {
	return r.mutate(id, func(e *application.Entity) { e.PaymentIntentID = intentID })
}

func (r *ApplicationRepository) MarkFeePaid(_ context.Context, id string, paidAt time.Time) (*application.Entity, error) {
	return r.mutate(id, func(e *application.Entity) {
		e.FeeStatus = application.FeePaid
		e.PaidAt = &paidAt
	})
}

func (r *ApplicationRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.applications[id]; !ok {
		return apperr.NotFound("loan application not found")
	}
	delete(r.store.applications, id)
	return nil
}

func (r *ApplicationRepository) mutate(id string, fn func(*application.Entity)) (*application.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.applications[id]
	if !ok {
		return nil, apperr.NotFound("loan application not found")
	}
	fn(&rec.entity)
	out := rec.entity
	return &out, nil
}
