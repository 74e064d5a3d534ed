package study

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the study service. The API layer maps them to
// status codes with errors.Is.
var (
	// ErrCardNotFound indicates the flashcard does not exist or belongs to another owner.
	ErrCardNotFound = errors.New("flashcard not found")

	// ErrItemNotFound indicates the item does not exist or belongs to another owner.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidRating indicates a rating outside AGAIN, HARD, GOOD and EASY.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidAnswers indicates a quiz submission without an answers list.
	ErrInvalidAnswers = errors.New("invalid quiz answers")

	// ErrTransient indicates a review kept losing races with concurrent
	// reviews of the same card. The client may retry.
	ErrTransient = errors.New("temporary conflict, retry the request")
)

// ServiceError wraps errors from the study service with the failing operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g. "submit_review", "get_progress")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
