package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionKind identifies the activity a session log entry records.
type SessionKind string

// Possible session kinds
const (
	SessionKindFlashcardReview SessionKind = "FLASHCARD_REVIEW"
	SessionKindQuiz            SessionKind = "QUIZ"
)

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == SessionKindFlashcardReview || k == SessionKindQuiz
}

// Common validation errors for SessionLogEntry
var (
	ErrEmptySessionID      = errors.New("session log ID cannot be empty")
	ErrEmptySessionOwnerID = errors.New("session log owner ID cannot be empty")
	ErrInvalidQuizScore    = errors.New("quiz score must be between 0 and 100")
)

// SessionLogEntry is an append-only record of one completed flashcard review
// or quiz submission. Entries are never updated or deleted.
type SessionLogEntry struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Kind      SessionKind     `json:"kind"`
	Score     float64         `json:"score"` // Quiz percentage, or the resulting ease for reviews
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// ReviewMetadata is the metadata payload of a FLASHCARD_REVIEW entry.
type ReviewMetadata struct {
	CardID uuid.UUID `json:"card_id"`
	Rating Rating    `json:"rating"`
}

// QuizMetadata is the metadata payload of a QUIZ entry.
type QuizMetadata struct {
	ItemID  uuid.UUID `json:"item_id"`
	Correct int       `json:"correct"`
	Total   int       `json:"total"`
}

// NewReviewLogEntry records a flashcard review. The score is the ease
// factor produced by the transition.
func NewReviewLogEntry(
	ownerID, cardID uuid.UUID,
	rating Rating,
	ease float64,
	now time.Time,
) (*SessionLogEntry, error) {
	meta, err := json.Marshal(ReviewMetadata{CardID: cardID, Rating: rating})
	if err != nil {
		return nil, fmt.Errorf("failed to encode review metadata: %w", err)
	}

	entry := &SessionLogEntry{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      SessionKindFlashcardReview,
		Score:     ease,
		Metadata:  meta,
		CreatedAt: now.UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// NewQuizLogEntry records a quiz submission.
func NewQuizLogEntry(ownerID, itemID uuid.UUID, result QuizResult, now time.Time) (*SessionLogEntry, error) {
	meta, err := json.Marshal(QuizMetadata{
		ItemID:  itemID,
		Correct: result.Correct,
		Total:   result.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz metadata: %w", err)
	}

	entry := &SessionLogEntry{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      SessionKindQuiz,
		Score:     float64(result.Score),
		Metadata:  meta,
		CreatedAt: now.UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks if the SessionLogEntry has valid data.
func (e *SessionLogEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if e.OwnerID == uuid.Nil {
		return ErrEmptySessionOwnerID
	}

	if !e.Kind.Valid() {
		return ErrInvalidSessionKind
	}

	if e.Kind == SessionKindQuiz && (e.Score < 0 || e.Score > 100) {
		return ErrInvalidQuizScore
	}

	return nil
}
