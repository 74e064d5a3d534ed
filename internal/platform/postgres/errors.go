package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/learnloop/learnloop-api/internal/store"
)

// SQLSTATE codes the stores translate.
const (
	uniqueViolationCode      = "23505"
	foreignKeyViolationCode  = "23503"
	checkViolationCode       = "23514"
	notNullViolationCode     = "23502"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

type pgMapping struct {
	sentinel error
	what     string
}

var pgCodes = map[string]pgMapping{
	uniqueViolationCode:      {store.ErrDuplicate, "unique violation"},
	foreignKeyViolationCode:  {store.ErrInvalidEntity, "foreign key violation"},
	checkViolationCode:       {store.ErrInvalidEntity, "check constraint violation"},
	notNullViolationCode:     {store.ErrInvalidEntity, "not null violation"},
	serializationFailureCode: {store.ErrConflict, "serialization failure"},
	deadlockDetectedCode:     {store.ErrConflict, "deadlock detected"},
}

// MapError translates driver errors into store sentinels, keeping the
// original error text. Errors it does not recognize are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	m, ok := pgCodes[pgErr.Code]
	if !ok {
		return err
	}

	switch {
	case pgErr.ConstraintName != "":
		return fmt.Errorf("%w: %s (%s): %v", m.sentinel, m.what, pgErr.ConstraintName, err)
	case pgErr.ColumnName != "":
		return fmt.Errorf("%w: %s (%s): %v", m.sentinel, m.what, pgErr.ColumnName, err)
	default:
		return fmt.Errorf("%w: %s: %v", m.sentinel, m.what, err)
	}
}

// CheckRowsAffected returns store.ErrNotFound, naming entityName, when
// result touched no rows.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if entityName == "" {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: %s not found", store.ErrNotFound, entityName)
}
