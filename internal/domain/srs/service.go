package srs

import (
	"errors"
	"time"

	"github.com/learnloop/learnloop-api/internal/domain"
)

// Common errors
var (
	ErrNilState = errors.New("flashcard state cannot be nil")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// CalculateNextReview computes the flashcard state that results from a rating.
	// The input card is not modified.
	CalculateNextReview(
		card *domain.Flashcard,
		rating domain.Rating,
		now time.Time,
	) (*domain.Flashcard, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface
func (s *defaultService) CalculateNextReview(
	card *domain.Flashcard,
	rating domain.Rating,
	now time.Time,
) (*domain.Flashcard, error) {
	if card == nil {
		return nil, ErrNilState
	}

	if !rating.Valid() {
		return nil, domain.ErrInvalidRating
	}

	next := Apply(*card, rating, now, s.params)
	return &next, nil
}
