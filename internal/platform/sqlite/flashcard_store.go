package sqlite

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

const flashcardColumns = `
	f.id, f.item_id, i.owner_id, f.question, f.answer,
	f.ease_factor, f.interval_days, f.review_count, f.next_due_at, f.last_rating,
	f.version, f.created_at, f.updated_at
	FROM flashcards f
	JOIN items i ON i.id = f.item_id
`

// SQLiteFlashcardStore implements store.FlashcardStore on SQLite.
type SQLiteFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteFlashcardStore creates a SQLiteFlashcardStore.
func NewSQLiteFlashcardStore(db store.DBTX, logger *slog.Logger) *SQLiteFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

var _ store.FlashcardStore = (*SQLiteFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *SQLiteFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &SQLiteFlashcardStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
func (s *SQLiteFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO flashcards (
			id, item_id, question, answer, ease_factor, interval_days, review_count,
			next_due_at, last_rating, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, query,
			card.ID.String(),
			card.ItemID.String(),
			card.Question,
			card.Answer,
			card.EaseFactor,
			card.Interval,
			card.ReviewCount,
			toMicros(card.NextDueAt),
			ratingValue(card.LastRating),
			card.Version,
			toMicros(card.CreatedAt),
			toMicros(card.UpdatedAt),
		)
		if err != nil {
			log.Error("failed to insert flashcard",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()))
			return MapError(err)
		}
	}
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
func (s *SQLiteFlashcardStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	return s.getOne(ctx, ownerID, id)
}

// GetForUpdate implements store.FlashcardStore.GetForUpdate
// SQLite has no row locks; the IMMEDIATE transaction already holds the
// database write lock, which serializes reviews.
func (s *SQLiteFlashcardStore) GetForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	return s.getOne(ctx, ownerID, id)
}

func (s *SQLiteFlashcardStore) getOne(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` WHERE f.id = ? AND i.owner_id = ?`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id.String(), ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFlashcardNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// UpdateSchedule implements store.FlashcardStore.UpdateSchedule
func (s *SQLiteFlashcardStore) UpdateSchedule(ctx context.Context, card *domain.Flashcard, expectedVersion int) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE flashcards
		SET ease_factor = ?, interval_days = ?, review_count = ?, next_due_at = ?,
			last_rating = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		card.EaseFactor,
		card.Interval,
		card.ReviewCount,
		toMicros(card.NextDueAt),
		ratingValue(card.LastRating),
		toMicros(card.UpdatedAt),
		card.ID.String(),
		expectedVersion,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update flashcard schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM flashcards WHERE id = ?`, card.ID.String()).Scan(&exists)
		if err != nil {
			return MapError(err)
		}
		if exists == 0 {
			return store.ErrFlashcardNotFound
		}
		return store.NewStoreError("flashcard", "update",
			fmt.Sprintf("version %d is stale", expectedVersion), store.ErrConflict)
	}

	card.Version = expectedVersion + 1
	return nil
}

// QueryDue implements store.FlashcardStore.QueryDue
func (s *SQLiteFlashcardStore) QueryDue(
	ctx context.Context,
	ownerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + `
		WHERE i.owner_id = ? AND f.next_due_at <= ?
		ORDER BY f.next_due_at ASC, f.id ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID.String(), toMicros(asOf), limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query due flashcards",
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
	return cards, nil
}

// CountDue implements store.FlashcardStore.CountDue
func (s *SQLiteFlashcardStore) CountDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM flashcards f
		JOIN items i ON i.id = f.item_id
		WHERE i.owner_id = ? AND f.next_due_at <= ?
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, ownerID.String(), toMicros(asOf)).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var id, itemID, ownerID string
	var lastRating sql.NullString
	var nextDue, created, updated int64

	err := row.Scan(
		&id,
		&itemID,
		&ownerID,
		&card.Question,
		&card.Answer,
		&card.EaseFactor,
		&card.Interval,
		&card.ReviewCount,
		&nextDue,
		&lastRating,
		&card.Version,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if card.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid flashcard id %q: %w", id, err)
	}
	if card.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("invalid item id %q: %w", itemID, err)
	}
	if card.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}
	if lastRating.Valid {
		r := domain.Rating(lastRating.String)
		card.LastRating = &r
	}
	card.NextDueAt = fromMicros(nextDue)
	card.CreatedAt = fromMicros(created)
	card.UpdatedAt = fromMicros(updated)

	return &card, nil
}

func ratingValue(r *domain.Rating) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
