package memory

import (
	"context"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/loan"
)

type loanRecord struct {
	entity loan.Entity
	seq    int64
}

type LoanRepository struct {
	store *Store
	seq   int64
}

func NewLoanRepository(store *Store) *LoanRepository {
	return &LoanRepository{store: store}
}

func (r *LoanRepository) Create(_ context.Context, in loan.Entity) (*loan.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.seq++
	in.ID = newID()
	in = cloneLoan(in)
	r.store.loans[in.ID] = &loanRecord{entity: in, seq: r.seq}
	out := cloneLoan(in)
	return &out, nil
}

func (r *LoanRepository) GetByID(_ context.Context, id string) (*loan.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.loans[id]
	if !ok {
		return nil, apperr.NotFound("loan not found")
	}
	out := cloneLoan(rec.entity)
	return &out, nil
}

func (r *LoanRepository) List(_ context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	recs := make([]*loanRecord, 0, len(r.store.loans))
	for _, rec := range r.store.loans {
		e := rec.entity
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
			continue
		}
		if f.ShowOnHome != nil && e.ShowOnHome != *f.ShowOnHome {
			continue
		}
		recs = append(recs, rec)
	}
	newestFirst(recs, func(rec *loanRecord) int64 { return rec.seq })
	out := make([]loan.Entity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneLoan(rec.entity))
	}
	return out, nil
}

func (r *LoanRepository) Update(_ context.Context, id string, p loan.Patch, updatedAt time.Time) (*loan.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.loans[id]
	if !ok {
		return nil, apperr.NotFound("loan not found")
	}
	e := &rec.entity
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.ShortDescription != nil {
		e.ShortDescription = *p.ShortDescription
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.InterestRate != nil {
		e.InterestRate = *p.InterestRate
	}
	if p.MaxLimit != nil {
		e.MaxLimit = *p.MaxLimit
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.EMIPlans != nil {
		e.EMIPlans = append([]string(nil), (*p.EMIPlans)...)
	}
	if p.RequiredDocuments != nil {
		e.RequiredDocuments = append([]string(nil), (*p.RequiredDocuments)...)
	}
	if p.ShowOnHome != nil {
		e.ShowOnHome = *p.ShowOnHome
	}
	e.UpdatedAt = updatedAt
	out := cloneLoan(*e)
	return &out, nil
}

func (r *LoanRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.loans[id]; !ok {
		return apperr.NotFound("loan not found")
	}
	delete(r.store.loans, id)
	return nil
}

func cloneLoan(e loan.Entity) loan.Entity {
	e.EMIPlans = append([]string{}, e.EMIPlans...)
	e.RequiredDocuments = append([]string{}, e.RequiredDocuments...)
	return e
}
