package loan_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/loan"
	"github.com/loanlink/backend/internal/numeric"
	"github.com/loanlink/backend/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

func newService() *loan.Service {
	return loan.NewService(memory.NewLoanRepository(memory.NewStore()))
}

func TestCreateCoercesNumericStrings(t *testing.T) {
	var in struct {
		InterestRate numeric.Number `json:"interestRate"`
		MaxLimit     numeric.Number `json:"maxLimit"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"interestRate":"12.5","maxLimit":"50000"}`), &in))

	created, err := newService().Create(context.Background(), loan.CreateInput{
		Title:        "  Home Loan ",
		InterestRate: in.InterestRate,
		MaxLimit:     in.MaxLimit,
		EMIPlans:     []string{"6 months", " ", "12 months"},
		CreatedBy:    "Manager@Example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Home Loan", created.Title)
	require.Equal(t, 12.5, created.InterestRate)
	require.Equal(t, 50000.0, created.MaxLimit)
	require.Equal(t, []string{"6 months", "12 months"}, created.EMIPlans)
	require.Equal(t, "manager@example.com", created.CreatedBy)
}

func TestCreateRejectsBadNumbers(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, loan.CreateInput{Title: "x", InterestRate: numeric.Number{Raw: "abc", Valid: true}, MaxLimit: numeric.Of(1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, loan.CreateInput{Title: "x", InterestRate: numeric.Of(-1), MaxLimit: numeric.Of(1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, loan.CreateInput{Title: "x", MaxLimit: numeric.Of(1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, loan.CreateInput{InterestRate: numeric.Of(1), MaxLimit: numeric.Of(1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestOverflowingNumbersAreRejected(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, loan.CreateInput{Title: "x", InterestRate: numeric.Number{Raw: "1e400", Valid: true}, MaxLimit: numeric.Of(1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	created, err := svc.Create(ctx, loan.CreateInput{Title: "x", InterestRate: numeric.Of(5), MaxLimit: numeric.Of(1000)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, loan.UpdateInput{MaxLimit: numeric.Number{Raw: "1e400", Valid: true}})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	items, err := svc.List(ctx, loan.ListFilter{})
	require.NoError(t, err)
	_, err = json.Marshal(items)
	require.NoError(t, err)
}

func TestUpdateCoercesAndKeepsUntouchedFields(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, loan.CreateInput{Title: "Car", Category: "auto", InterestRate: numeric.Of(9), MaxLimit: numeric.Of(20000)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, loan.UpdateInput{MaxLimit: numeric.Number{Raw: "25000.75", Valid: true}})
	require.NoError(t, err)
	require.Equal(t, 25000.75, updated.MaxLimit)
	require.Equal(t, 9.0, updated.InterestRate)
	require.Equal(t, "Car", updated.Title)
	require.Equal(t, "auto", updated.Category)

	_, err = svc.Update(ctx, created.ID, loan.UpdateInput{})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Update(ctx, created.ID, loan.UpdateInput{InterestRate: numeric.Number{Raw: "nine", Valid: true}})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	title := "Truck"
	_, err = svc.Update(ctx, "missing", loan.UpdateInput{Title: &title})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListFiltersAndHome(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	first, err := svc.Create(ctx, loan.CreateInput{Title: "A", Category: "home", ShowOnHome: true, InterestRate: numeric.Of(1), MaxLimit: numeric.Of(1)})
	require.NoError(t, err)
	second, err := svc.Create(ctx, loan.CreateInput{Title: "B", Category: "auto", InterestRate: numeric.Of(1), MaxLimit: numeric.Of(1)})
	require.NoError(t, err)
	third, err := svc.Create(ctx, loan.CreateInput{Title: "C", Category: "home", ShowOnHome: true, InterestRate: numeric.Of(1), MaxLimit: numeric.Of(1)})
	require.NoError(t, err)

	all, err := svc.List(ctx, loan.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	homeCat, err := svc.List(ctx, loan.ListFilter{Category: "home"})
	require.NoError(t, err)
	require.Equal(t, []string{third.ID, first.ID}, ids(homeCat))

	featured, err := svc.ListHome(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 2)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, loan.CreateInput{Title: "A", InterestRate: numeric.Of(1), MaxLimit: numeric.Of(1)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	require.True(t, apperr.Is(svc.Delete(ctx, created.ID), apperr.KindNotFound))
}

func ids(in []loan.Entity) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		out = append(out, l.ID)
	}
	return out
}
