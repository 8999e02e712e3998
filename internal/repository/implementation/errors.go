package implementation

import (
	"errors"
	"fmt"

	"ai-notes-reflect/internal/repository/contract"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// translateError maps driver errors the services care about onto contract
// errors.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", contract.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
