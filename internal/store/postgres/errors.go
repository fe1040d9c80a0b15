package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
)

const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

func mapError(err error, op, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NewNotFoundError(what + " not found")
	}
	if isUniqueViolation(err) {
		return errs.NewAlreadyExistsError(what + " already exists")
	}
	return errs.NewDatabaseError(op, "failed to "+op+" "+what, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// nullDate maps the empty string to SQL NULL.
func nullDate(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
