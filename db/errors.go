package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Hrei2/ticket-system/entity"
)

const postgresUniqueValueViolationErrorCode = "23505"

// TranslateError maps driver errors onto the entity error taxonomy. Anything
// that is not a missing row or a unique violation is treated as a transient
// store failure.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}

	var psqlErr *pq.Error
	if errors.As(err, &psqlErr) && psqlErr.Code == postgresUniqueValueViolationErrorCode {
		return fmt.Errorf("%w: %s", entity.ErrConflict, psqlErr.Message)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
}
