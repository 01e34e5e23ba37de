package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/loan"
)

const loanColumns = `id::text, title, short_description, description, category, interest_rate, max_limit,
       image, emi_plans, required_documents, show_on_home, created_by, created_at, updated_at`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func scanLoan(row pgx.Row) (*loan.Entity, error) {
	out := &loan.Entity{}
	if err := row.Scan(
		&out.ID, &out.Title, &out.ShortDescription, &out.Description, &out.Category, &out.InterestRate, &out.MaxLimit,
		&out.Image, &out.EMIPlans, &out.RequiredDocuments, &out.ShowOnHome, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if out.EMIPlans == nil {
		out.EMIPlans = []string{}
	}
	if out.RequiredDocuments == nil {
		out.RequiredDocuments = []string{}
	}
	return out, nil
}

func (r *LoanRepository) Create(ctx context.Context, in loan.Entity) (*loan.Entity, error) {
	q := `
INSERT INTO loans (
  title, short_description, description, category, interest_rate, max_limit,
  image, emi_plans, required_documents, show_on_home, created_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING ` + loanColumns
	out, err := scanLoan(r.pool.QueryRow(ctx, q,
		in.Title, in.ShortDescription, in.Description, in.Category, in.InterestRate, in.MaxLimit,
		in.Image, nonNil(in.EMIPlans), nonNil(in.RequiredDocuments), in.ShowOnHome, in.CreatedBy, in.CreatedAt, in.UpdatedAt,
	))
	if err != nil {
		return nil, translate(err, "loan")
	}
	return out, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	lid, err := parseID(id, "loan")
	if err != nil {
		return nil, err
	}
	out, err := scanLoan(r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, lid))
	if err != nil {
		return nil, translate(err, "loan")
	}
	return out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loans WHERE 1=1`)

	args := []any{}
	argPos := 1
	if f.Category != "" {
		builder.WriteString(" AND category = $" + strconv.Itoa(argPos))
		args = append(args, f.Category)
		argPos++
	}
	if f.CreatedBy != "" {
		builder.WriteString(" AND created_by = $" + strconv.Itoa(argPos))
		args = append(args, f.CreatedBy)
		argPos++
	}
	if f.ShowOnHome != nil {
		builder.WriteString(" AND show_on_home = $" + strconv.Itoa(argPos))
		args = append(args, *f.ShowOnHome)
	}
	builder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, translate(err, "loans")
	}
	defer rows.Close()

	out := make([]loan.Entity, 0)
	for rows.Next() {
		item, err := scanLoan(rows)
		if err != nil {
			return nil, translate(err, "loans")
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "loans")
	}
	return out, nil
}

func (r *LoanRepository) Update(ctx context.Context, id string, p loan.Patch, updatedAt time.Time) (*loan.Entity, error) {
	lid, err := parseID(id, "loan")
	if err != nil {
		return nil, err
	}
	q := `
UPDATE loans SET
  title = COALESCE($2, title),
  short_description = COALESCE($3, short_description),
  description = COALESCE($4, description),
  category = COALESCE($5, category),
  interest_rate = COALESCE($6, interest_rate),
  max_limit = COALESCE($7, max_limit),
  image = COALESCE($8, image),
  emi_plans = COALESCE($9, emi_plans),
  required_documents = COALESCE($10, required_documents),
  show_on_home = COALESCE($11, show_on_home),
  updated_at = $12
WHERE id = $1
RETURNING ` + loanColumns
	out, err := scanLoan(r.pool.QueryRow(ctx, q, lid,
		p.Title, p.ShortDescription, p.Description, p.Category, p.InterestRate, p.MaxLimit,
		p.Image, listArg(p.EMIPlans), listArg(p.RequiredDocuments), p.ShowOnHome, updatedAt,
	))
	if err != nil {
		return nil, translate(err, "loan")
	}
	return out, nil
}

func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	lid, err := parseID(id, "loan")
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1`, lid)
	if err != nil {
		return translate(err, "loan")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("loan not found")
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// listArg passes nil through so COALESCE keeps the stored array.
func listArg(in *[]string) any {
	if in == nil {
		return nil
	}
	return nonNil(*in)
}
