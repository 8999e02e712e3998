package implementation

import (
	"errors"
	"fmt"
	"testing"

	"ai-notes-reflect/internal/repository/contract"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_folders_name"}
	assert.ErrorIs(t, translateError(fmt.Errorf("insert: %w", unique)), contract.ErrDuplicate)

	other := &pgconn.PgError{Code: "23503"}
	assert.NotErrorIs(t, translateError(other), contract.ErrDuplicate)

	plain := errors.New("boom")
	assert.Same(t, plain, translateError(plain))
}
