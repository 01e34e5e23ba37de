package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/loanlink/backend/internal/apperr"
)

const uniqueViolation = "23505"

// parseID rejects ids that cannot be a row key before they reach the uuid
// column, where they would surface as a cast error.
func parseID(id, what string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.NotFound(what + " not found")
	}
	return parsed.String(), nil
}

func translate(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Upstream("postgres "+what, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
