package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/learnloop/learnloop-api/internal/api/shared"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/service/auth"
	"github.com/learnloop/learnloop-api/internal/service/study"
	"github.com/learnloop/learnloop-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, study.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, study.ErrInvalidRating),
		errors.Is(err, study.ErrInvalidAnswers),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	case errors.Is(err, study.ErrTransient):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	var vErr *domain.ValidationError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"

	case errors.Is(err, study.ErrCardNotFound), errors.Is(err, store.ErrFlashcardNotFound):
		return "Card not found"
	case errors.Is(err, study.ErrItemNotFound), errors.Is(err, store.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, study.ErrInvalidRating), errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating: must be one of AGAIN, HARD, GOOD, EASY"
	case errors.Is(err, study.ErrInvalidAnswers):
		return "Invalid answers: expected a list of choice indexes"
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)
	case errors.As(err, &vErr):
		return fmt.Sprintf("Invalid %s: %s", vErr.Field, vErr.Message)

	case errors.Is(err, study.ErrTransient):
		return "The card is busy, please retry"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field and rule.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := fe.Field()
	// Slice elements are reported as answers[2].
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "must be a UUID"
	case "rating":
		return "must be one of AGAIN, HARD, GOOD, EASY"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// details. A non-empty msg overrides the derived client message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := MapErrorToStatusCode(err)
	if msg == "" {
		msg = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusServiceUnavailable || status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// handleDecodeError reports a body that is not valid JSON for the request.
func handleDecodeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Debug("failed to decode request body", slog.String("error", err.Error()))
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
}
