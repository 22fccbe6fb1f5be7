package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// TranslateError maps a gorm/pgx error onto the identity error kinds.
// conflictMsg is the public message used for unique violations; empty means
// the generic conflict text. Errors that already carry a kind pass through
// unchanged.
func TranslateError(err error, conflictMsg string) error {
	if err == nil || identity.Kind(err) != nil {
		return err
	}
	if conflictMsg == "" {
		conflictMsg = identity.ErrConflict.Error()
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.NewError(identity.ErrNotFound, "Not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return identity.NewError(identity.ErrConflict, conflictMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return identity.NewError(identity.ErrConflict, conflictMsg)
	}
	return identity.Dependency(err)
}
