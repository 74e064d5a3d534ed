package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
)

// FlashcardStore defines the interface for flashcard persistence.
//
// Ownership is resolved through the parent item: every owner-scoped method
// treats a card of another owner exactly like a missing card.
type FlashcardStore interface {
	// CreateMultiple saves multiple flashcards to the store.
	// IMPORTANT: This method MUST be run within a transaction for atomicity.
	// Use WithTx together with store.RunInTransaction.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard owned by ownerID.
	// Returns ErrFlashcardNotFound if the card does not exist or belongs to someone else.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error)

	// GetForUpdate behaves like GetByID but locks the row until the surrounding
	// transaction ends, so concurrent reviews of one card are serialized.
	// It is only meaningful on a store returned by WithTx.
	GetForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error)

	// UpdateSchedule persists the scheduling fields of card (ease factor,
	// interval, review count, next due time, last rating) if the stored
	// version still equals expectedVersion. On success the stored version and
	// card.Version become expectedVersion+1.
	// Returns ErrFlashcardNotFound if the card is gone, ErrConflict if the
	// version moved.
	UpdateSchedule(ctx context.Context, card *domain.Flashcard, expectedVersion int) error

	// QueryDue returns up to limit cards of ownerID whose next due time is at
	// or before asOf, ordered by next due time ascending with the card id as
	// tie-break. An empty result is not an error.
	QueryDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time, limit int) ([]*domain.Flashcard, error)

	// CountDue counts the cards QueryDue would return without a limit.
	CountDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (int, error)

	// WithTx returns a new FlashcardStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) FlashcardStore
}
