package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"livestock-tracking/internal/domain/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	numericOutOfRange   = "22003"
)

// mapError traduce errores del driver a los sentinels de apperr.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateKey, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, pgErr.ConstraintName)
		case numericOutOfRange:
			return apperr.Invalid("value", "range", pgErr.Message)
		}
	}
	return err
}

// affected devuelve ErrNotFound si el UPDATE/DELETE no tocó filas.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
