package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
)

// SessionLogStore persists the append-only session log.
// Entries are never updated or deleted.
type SessionLogStore interface {
	// Append stores a new entry.
	// Returns ErrInvalidEntity if the entry fails validation.
	Append(ctx context.Context, entry *domain.SessionLogEntry) error

	// ListRecent returns at most limit entries of the given kind for ownerID,
	// newest first. Entries with equal timestamps are ordered by id descending.
	ListRecent(
		ctx context.Context,
		ownerID uuid.UUID,
		kind domain.SessionKind,
		limit int,
	) ([]*domain.SessionLogEntry, error)

	// WithTx returns a new SessionLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SessionLogStore
}
