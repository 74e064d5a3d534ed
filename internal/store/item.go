package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
)

// ItemStore defines the interface for item persistence.
type ItemStore interface {
	// Create saves a new item.
	// Returns ErrInvalidEntity if the item fails validation, ErrDuplicate if the id exists.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item owned by ownerID.
	// Returns ErrItemNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Item, error)

	// CountByOwner returns how many items ownerID has.
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)

	// WithTx returns a new ItemStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ItemStore
}

// QuizQuestionStore defines the interface for quiz question persistence.
type QuizQuestionStore interface {
	// CreateMultiple saves quiz questions. Run it within a transaction.
	CreateMultiple(ctx context.Context, questions []*domain.QuizQuestion) error

	// ListByItem returns the questions of an item ordered by position.
	// Ownership is checked by the caller through ItemStore.
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.QuizQuestion, error)

	// WithTx returns a new QuizQuestionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) QuizQuestionStore
}
