package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Scheduling defaults for a freshly created flashcard.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	DefaultInterval   = 1
)

// Flashcard-specific validation errors
var (
	ErrFlashcardIDEmpty     = errors.New("flashcard ID cannot be empty")
	ErrFlashcardItemIDEmpty = errors.New("flashcard item ID cannot be empty")
	ErrFlashcardQuestion    = errors.New("flashcard question cannot be empty")
	ErrInvalidEaseFactor    = errors.New("ease factor must be at least 1.3")
	ErrInvalidInterval      = errors.New("interval must be at least 1 day")
	ErrInvalidReviewCount   = errors.New("review count cannot be negative")
)

// Flashcard is a question/answer pair owned by an item, together with its
// spaced repetition state. The scheduling fields (EaseFactor, Interval,
// ReviewCount, NextDueAt, LastRating) are only ever changed by a rating
// transition computed in the srs package.
type Flashcard struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	OwnerID  uuid.UUID `json:"owner_id"` // Resolved through the parent item
	Question string    `json:"question"`
	Answer   string    `json:"answer"`

	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`     // Days until the review after the upcoming one
	ReviewCount int       `json:"review_count"` // Consecutive successful reviews since the last lapse
	NextDueAt   time.Time `json:"next_due_at"`
	LastRating  *Rating   `json:"last_rating,omitempty"`

	// Version increases by one with every persisted transition.
	Version int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFlashcard creates a flashcard with the default scheduling state:
// ease 2.5, interval 1, no reviews, due immediately.
func NewFlashcard(itemID uuid.UUID, question, answer string, now time.Time) (*Flashcard, error) {
	now = now.UTC()
	card := &Flashcard{
		ID:          uuid.New(),
		ItemID:      itemID,
		Question:    question,
		Answer:      answer,
		EaseFactor:  DefaultEaseFactor,
		Interval:    DefaultInterval,
		ReviewCount: 0,
		NextDueAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the identity fields and the scheduling invariants.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrFlashcardIDEmpty
	}

	if c.ItemID == uuid.Nil {
		return ErrFlashcardItemIDEmpty
	}

	if c.Question == "" {
		return ErrFlashcardQuestion
	}

	if c.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if c.Interval < 1 {
		return ErrInvalidInterval
	}

	if c.ReviewCount < 0 {
		return ErrInvalidReviewCount
	}

	if c.LastRating != nil && !c.LastRating.Valid() {
		return ErrInvalidRating
	}

	return nil
}

// IsDue reports whether the card is due at asOf.
func (c *Flashcard) IsDue(asOf time.Time) bool {
	return !c.NextDueAt.After(asOf)
}

// Clone returns a deep copy of the flashcard.
func (c *Flashcard) Clone() *Flashcard {
	clone := *c
	if c.LastRating != nil {
		r := *c.LastRating
		clone.LastRating = &r
	}
	return &clone
}
