package postgres

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vedran77/minilid/internal/repository"
)

const uniqueViolation = "23505"

func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if isDuplicateError(err) {
		return errors.Mark(err, repository.ErrDuplicate)
	}
	return err
}
