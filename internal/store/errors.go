package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every backend. Backends wrap them with driver
// detail, so callers must compare with errors.Is.
var (
	// ErrNotFound means the row does not exist or is outside the caller's
	// ownership scope. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate means a unique key already exists.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity means the entity failed validation, either before the
	// write or through a database constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConflict means a write lost a race: a version mismatch on a guarded
	// update, a serialization failure, a deadlock or a busy database.
	// Retrying the whole operation may succeed.
	ErrConflict = errors.New("concurrent modification")

	ErrFlashcardNotFound = fmt.Errorf("%w: flashcard", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: item", ErrNotFound)
)

// IsNotFoundError reports whether err is ErrNotFound or one of its
// entity-specific forms.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError reports whether err is a retryable concurrent modification.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// StoreError adds the entity and operation to a failed store call.
type StoreError struct {
	Entity    string // e.g. "flashcard"
	Operation string // e.g. "update_schedule"
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns a StoreError wrapping err.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
