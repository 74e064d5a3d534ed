package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/store"
)

// flashcardColumns selects a flashcard joined with the owner of its item.
const flashcardColumns = `
	f.id, f.item_id, i.owner_id, f.question, f.answer,
	f.ease_factor, f.interval_days, f.review_count, f.next_due_at, f.last_rating,
	f.version, f.created_at, f.updated_at
	FROM flashcards f
	JOIN items i ON i.id = f.item_id
`

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during create",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO flashcards (
			id, item_id, question, answer, ease_factor, interval_days, review_count,
			next_due_at, last_rating, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, query,
			card.ID,
			card.ItemID,
			card.Question,
			card.Answer,
			card.EaseFactor,
			card.Interval,
			card.ReviewCount,
			card.NextDueAt.UTC(),
			ratingValue(card.LastRating),
			card.Version,
			card.CreatedAt.UTC(),
			card.UpdatedAt.UTC(),
		)
		if err != nil {
			log.Error("failed to insert flashcard",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()),
				slog.String("item_id", card.ItemID.String()))
			return MapError(err)
		}
	}

	log.Debug("flashcards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` WHERE f.id = $1 AND i.owner_id = $2`
	return s.getOne(ctx, query, ownerID, id)
}

// GetForUpdate implements store.FlashcardStore.GetForUpdate
// The row lock is held on the flashcard only, not on its item.
func (s *PostgresFlashcardStore) GetForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` WHERE f.id = $1 AND i.owner_id = $2 FOR UPDATE OF f`
	return s.getOne(ctx, query, ownerID, id)
}

func (s *PostgresFlashcardStore) getOne(
	ctx context.Context,
	query string,
	ownerID, id uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found",
				slog.String("flashcard_id", id.String()),
				slog.String("owner_id", ownerID.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// UpdateSchedule implements store.FlashcardStore.UpdateSchedule
func (s *PostgresFlashcardStore) UpdateSchedule(
	ctx context.Context,
	card *domain.Flashcard,
	expectedVersion int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during schedule update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE flashcards
		SET ease_factor = $1, interval_days = $2, review_count = $3, next_due_at = $4,
			last_rating = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		card.EaseFactor,
		card.Interval,
		card.ReviewCount,
		card.NextDueAt.UTC(),
		ratingValue(card.LastRating),
		card.UpdatedAt.UTC(),
		card.ID,
		expectedVersion,
	)
	if err != nil {
		log.Error("failed to update flashcard schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "flashcard"); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.missOrConflict(ctx, card.ID, expectedVersion)
	}

	card.Version = expectedVersion + 1
	log.Debug("flashcard schedule updated",
		slog.String("flashcard_id", card.ID.String()),
		slog.Int("version", card.Version))
	return nil
}

// missOrConflict tells a vanished card apart from a stale version.
func (s *PostgresFlashcardStore) missOrConflict(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM flashcards WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrFlashcardNotFound
	}
	return store.NewStoreError("flashcard", "update",
		fmt.Sprintf("version %d is stale", expectedVersion), store.ErrConflict)
}

// QueryDue implements store.FlashcardStore.QueryDue
func (s *PostgresFlashcardStore) QueryDue(
	ctx context.Context,
	ownerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + flashcardColumns + `
		WHERE i.owner_id = $1 AND f.next_due_at <= $2
		ORDER BY f.next_due_at ASC, f.id ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, asOf.UTC(), limit)
	if err != nil {
		log.Error("failed to query due flashcards",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Flashcard, 0, limit)
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("due flashcards queried",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// CountDue implements store.FlashcardStore.CountDue
func (s *PostgresFlashcardStore) CountDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM flashcards f
		JOIN items i ON i.id = f.item_id
		WHERE i.owner_id = $1 AND f.next_due_at <= $2
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, ownerID, asOf.UTC()).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count due flashcards",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var lastRating sql.NullString

	err := row.Scan(
		&card.ID,
		&card.ItemID,
		&card.OwnerID,
		&card.Question,
		&card.Answer,
		&card.EaseFactor,
		&card.Interval,
		&card.ReviewCount,
		&card.NextDueAt,
		&lastRating,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastRating.Valid {
		r := domain.Rating(lastRating.String)
		card.LastRating = &r
	}
	card.NextDueAt = card.NextDueAt.UTC()
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()

	return &card, nil
}

func ratingValue(r *domain.Rating) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
