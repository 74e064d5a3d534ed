// Package study implements the learner-facing study flow: selecting the due
// queue, recording flashcard reviews and quiz submissions, and summarizing
// progress.
package study

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
)

// Service is the study session API used by the HTTP handlers.
type Service interface {
	// GetDueQueue returns the owner's cards due by the end of today in the
	// configured time zone. A limit of zero or less selects the default size;
	// larger limits are capped at the configured maximum.
	GetDueQueue(ctx context.Context, ownerID uuid.UUID, limit int) (*DueQueue, error)

	// SelectDue returns up to limit cards of ownerID due at or before asOf,
	// earliest first with the card id as tie-break. It never modifies state.
	SelectDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time, limit int) ([]*domain.Flashcard, error)

	// SubmitReview applies rating to the card and records the review, as one
	// atomic unit. It returns the card's new scheduling state.
	//
	// Errors:
	//   - ErrInvalidRating when rating is not one of the four ratings
	//   - ErrCardNotFound when the card is missing or owned by someone else
	//   - ErrTransient when concurrent reviews kept conflicting
	SubmitReview(ctx context.Context, ownerID, cardID uuid.UUID, rating domain.Rating) (*domain.Flashcard, error)

	// GetQuiz returns an item's quiz questions in order, without answers.
	GetQuiz(ctx context.Context, ownerID, itemID uuid.UUID) (*Quiz, error)

	// SubmitQuiz scores answers against the item's questions and records the
	// result. Quizzes never touch flashcard scheduling.
	SubmitQuiz(ctx context.Context, ownerID, itemID uuid.UUID, answers []int) (*domain.QuizResult, error)

	// GetProgress summarizes the owner's items, due cards and recent quiz scores.
	GetProgress(ctx context.Context, ownerID uuid.UUID) (*Progress, error)
}

// DueQueue is a batch of cards to review.
type DueQueue struct {
	Cards []*domain.Flashcard `json:"cards"`
	AsOf  time.Time           `json:"as_of"`
}

// Quiz is an item's question set as shown to a learner.
type Quiz struct {
	ItemID    uuid.UUID             `json:"item_id"`
	Title     string                `json:"title"`
	Questions []domain.QuizQuestion `json:"questions"`
}

// TrendPoint is one quiz score in the progress trend.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// Progress is the dashboard summary for one owner.
type Progress struct {
	TotalItems    int          `json:"total_items"`
	DueFlashcards int          `json:"due_flashcards"`
	QuizTrend     []TrendPoint `json:"quiz_trend"`
}

// Config tunes the study service.
type Config struct {
	DefaultQueueLimit  int
	MaxQueueLimit      int
	TrendSize          int
	Location           *time.Location
	MaxConflictRetries int
	// RetryBackoff is the pause between conflicting review attempts.
	RetryBackoff time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultQueueLimit:  50,
		MaxQueueLimit:      200,
		TrendSize:          20,
		Location:           time.UTC,
		MaxConflictRetries: 3,
		RetryBackoff:       20 * time.Millisecond,
		Now:                time.Now,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultQueueLimit <= 0 {
		c.DefaultQueueLimit = d.DefaultQueueLimit
	}
	if c.MaxQueueLimit <= 0 {
		c.MaxQueueLimit = d.MaxQueueLimit
	}
	if c.DefaultQueueLimit > c.MaxQueueLimit {
		c.DefaultQueueLimit = c.MaxQueueLimit
	}
	if c.TrendSize <= 0 {
		c.TrendSize = d.TrendSize
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.MaxConflictRetries < 0 {
		c.MaxConflictRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}

// endOfDay returns the last instant of t's calendar day in loc, at the
// microsecond precision the stores keep.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Microsecond)
}
