package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
)

const applicationColumns = `id::text, applicant_email, applicant_name, loan_id, loan_title, interest_rate, amount,
       emi_plan, reason, phone, national_id, income_source, monthly_income, address, notes,
       status, fee_status, payment_intent_id, created_at, approved_at, paid_at, cancelled_at`

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func scanApplication(row pgx.Row) (*application.Entity, error) {
	out := &application.Entity{}
	var status, feeStatus string
	if err := row.Scan(
		&out.ID, &out.ApplicantEmail, &out.ApplicantName, &out.LoanID, &out.LoanTitle, &out.InterestRate, &out.Amount,
		&out.EMIPlan, &out.Reason, &out.Phone, &out.NationalID, &out.IncomeSource, &out.MonthlyIncome, &out.Address, &out.Notes,
		&status, &feeStatus, &out.PaymentIntentID, &out.CreatedAt, &out.ApprovedAt, &out.PaidAt, &out.CancelledAt,
	); err != nil {
		return nil, err
	}
	out.Status = application.Status(status)
	out.FeeStatus = application.FeeStatus(feeStatus)
	return out, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, in application.Entity) (*application.Entity, error) {
	q := `
INSERT INTO loan_applications (
  applicant_email, applicant_name, loan_id, loan_title, interest_rate, amount,
  emi_plan, reason, phone, national_id, income_source, monthly_income, address, notes,
  status, fee_status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
RETURNING ` + applicationColumns
	out, err := scanApplication(r.pool.QueryRow(ctx, q,
		in.ApplicantEmail, in.ApplicantName, in.LoanID, in.LoanTitle, in.InterestRate, in.Amount,
		in.EMIPlan, in.Reason, in.Phone, in.NationalID, in.IncomeSource, in.MonthlyIncome, in.Address, in.Notes,
		string(in.Status), string(in.FeeStatus), in.CreatedAt,
	))
	if err != nil {
		return nil, translate(err, "loan application")
	}
	return out, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Entity, error) {
	aid, err := parseID(id, "loan application")
	if err != nil {
		return nil, err
	}
	out, err := scanApplication(r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, aid))
	if err != nil {
		return nil, translate(err, "loan application")
	}
	return out, nil
}

func (r *ApplicationRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*application.Entity, error) {
	out, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE payment_intent_id = $1 AND payment_intent_id <> ''`, intentID))
	if err != nil {
		return nil, translate(err, "loan application")
	}
	return out, nil
}

func (r *ApplicationRepository) List(ctx context.Context, f application.ListFilter) ([]application.Entity, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + applicationColumns + ` FROM loan_applications WHERE 1=1`)

	args := []any{}
	argPos := 1
	if f.ApplicantEmail != "" {
		builder.WriteString(" AND applicant_email = $" + strconv.Itoa(argPos))
		args = append(args, f.ApplicantEmail)
		argPos++
	}
	if f.Status != "" {
		builder.WriteString(" AND status = $" + strconv.Itoa(argPos))
		args = append(args, string(f.Status))
	}
	builder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, translate(err, "loan applications")
	}
	defer rows.Close()

	out := make([]application.Entity, 0)
	for rows.Next() {
		item, err := scanApplication(rows)
		if err != nil {
			return nil, translate(err, "loan applications")
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "loan applications")
	}
	return out, nil
}

// Cancel updates only a row that is still Pending. When nothing matches it
// tells a missing row apart from one that already left Pending.
func (r *ApplicationRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (*application.Entity, error) {
	aid, err := parseID(id, "loan application")
	if err != nil {
		return nil, err
	}
	out, err := scanApplication(r.pool.QueryRow(ctx, `
UPDATE loan_applications SET status = $2, cancelled_at = $3
WHERE id = $1 AND status = $4
RETURNING `+applicationColumns,
		aid, string(application.StatusCancelled), cancelledAt, string(application.StatusPending)))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translate(err, "loan application")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loan_applications WHERE id = $1)`, aid).Scan(&exists); err != nil {
		return nil, translate(err, "loan application")
	}
	if !exists {
		return nil, apperr.NotFound("loan application not found")
	}
	return nil, application.ErrNotPending
}

func (r *ApplicationRepository) SetDecision(ctx context.Context, id string, status application.Status, approvedAt *time.Time) (*application.Entity, error) {
	return r.update(ctx, id, `status = $2, approved_at = $3`, string(status), approvedAt)
}

func (r *ApplicationRepository) SetPaymentIntent(ctx context.Context, id, intentID string) (*application.Entity, error) {
	return r.update(ctx, id, `payment_intent_id = $2`, intentID)
}

func (r *ApplicationRepository) MarkFeePaid(ctx context.Context, id string, paidAt time.Time) (*application.Entity, error) {
	return r.update(ctx, id, `fee_status = $2, paid_at = $3`, string(application.FeePaid), paidAt)
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	aid, err := parseID(id, "loan application")
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM loan_applications WHERE id = $1`, aid)
	if err != nil {
		return translate(err, "loan application")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("loan application not found")
	}
	return nil
}

func (r *ApplicationRepository) update(ctx context.Context, id, set string, args ...any) (*application.Entity, error) {
	aid, err := parseID(id, "loan application")
	if err != nil {
		return nil, err
	}
	q := `UPDATE loan_applications SET ` + set + ` WHERE id = $1 RETURNING ` + applicationColumns
	out, err := scanApplication(r.pool.QueryRow(ctx, q, append([]any{aid}, args...)...))
	if err != nil {
		return nil, translate(err, "loan application")
	}
	return out, nil
}
