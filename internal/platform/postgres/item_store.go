package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/store"
)

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

var _ store.ItemStore = (*PostgresItemStore)(nil)

// WithTx implements store.ItemStore.WithTx
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}

// Create implements store.ItemStore.Create
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.Item) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO items (id, owner_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.OwnerID,
		item.Title,
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	log.Debug("item created",
		slog.String("item_id", item.ID.String()),
		slog.String("owner_id", item.OwnerID.String()))
	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *PostgresItemStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM items
		WHERE id = $1 AND owner_id = $2
	`

	var item domain.Item
	err := s.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}

	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

// CountByOwner implements store.ItemStore.CountByOwner
func (s *PostgresItemStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count items",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// PostgresQuizQuestionStore implements the store.QuizQuestionStore interface.
type PostgresQuizQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuizQuestionStore creates a new PostgreSQL implementation of the QuizQuestionStore interface.
func NewPostgresQuizQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuizQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuizQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "quiz_question_store")),
	}
}

var _ store.QuizQuestionStore = (*PostgresQuizQuestionStore)(nil)

// WithTx implements store.QuizQuestionStore.WithTx
func (s *PostgresQuizQuestionStore) WithTx(tx *sql.Tx) store.QuizQuestionStore {
	return &PostgresQuizQuestionStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.QuizQuestionStore.CreateMultiple
func (s *PostgresQuizQuestionStore) CreateMultiple(ctx context.Context, questions []*domain.QuizQuestion) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO quiz_questions (id, item_id, position, question, choices, correct_index)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return fmt.Errorf("failed to encode quiz choices: %w", err)
		}

		if _, err := s.db.ExecContext(ctx, query,
			q.ID, q.ItemID, q.Position, q.Question, string(choices), q.CorrectIndex,
		); err != nil {
			log.Error("failed to insert quiz question",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return MapError(err)
		}
	}

	return nil
}

// ListByItem implements store.QuizQuestionStore.ListByItem
func (s *PostgresQuizQuestionStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.QuizQuestion, error) {
	query := `
		SELECT id, item_id, position, question, choices, correct_index
		FROM quiz_questions
		WHERE item_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, itemID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list quiz questions",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	questions := []domain.QuizQuestion{}
	for rows.Next() {
		var q domain.QuizQuestion
		var choices []byte
		if err := rows.Scan(&q.ID, &q.ItemID, &q.Position, &q.Question, &choices, &q.CorrectIndex); err != nil {
			return nil, MapError(err)
		}
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("failed to decode quiz choices: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return questions, nil
}
