package sqlite

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

// SQLiteItemStore implements store.ItemStore on SQLite.
type SQLiteItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteItemStore creates a SQLiteItemStore.
func NewSQLiteItemStore(db store.DBTX, logger *slog.Logger) *SQLiteItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

var _ store.ItemStore = (*SQLiteItemStore)(nil)

// WithTx implements store.ItemStore.WithTx
func (s *SQLiteItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &SQLiteItemStore{db: tx, logger: s.logger}
}

// Create implements store.ItemStore.Create
func (s *SQLiteItemStore) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		item.ID.String(),
		item.OwnerID.String(),
		item.Title,
		toMicros(item.CreatedAt),
		toMicros(item.UpdatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *SQLiteItemStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	var created, updated int64

	err := s.db.QueryRowContext(ctx,
		`SELECT title, created_at, updated_at FROM items WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	).Scan(&item.Title, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, MapError(err)
	}

	item.ID = id
	item.OwnerID = ownerID
	item.CreatedAt = fromMicros(created)
	item.UpdatedAt = fromMicros(updated)
	return &item, nil
}

// CountByOwner implements store.ItemStore.CountByOwner
func (s *SQLiteItemStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE owner_id = ?`, ownerID.String()).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// SQLiteQuizQuestionStore implements store.QuizQuestionStore on SQLite.
type SQLiteQuizQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteQuizQuestionStore creates a SQLiteQuizQuestionStore.
func NewSQLiteQuizQuestionStore(db store.DBTX, logger *slog.Logger) *SQLiteQuizQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteQuizQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "quiz_question_store")),
	}
}

var _ store.QuizQuestionStore = (*SQLiteQuizQuestionStore)(nil)

// WithTx implements store.QuizQuestionStore.WithTx
func (s *SQLiteQuizQuestionStore) WithTx(tx *sql.Tx) store.QuizQuestionStore {
	return &SQLiteQuizQuestionStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.QuizQuestionStore.CreateMultiple
func (s *SQLiteQuizQuestionStore) CreateMultiple(ctx context.Context, questions []*domain.QuizQuestion) error {
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return fmt.Errorf("failed to encode quiz choices: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO quiz_questions (id, item_id, position, question, choices, correct_index)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			q.ID.String(), q.ItemID.String(), q.Position, q.Question, string(choices), q.CorrectIndex,
		)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert quiz question",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return MapError(err)
		}
	}
	return nil
}

// ListByItem implements store.QuizQuestionStore.ListByItem
func (s *SQLiteQuizQuestionStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.QuizQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position, question, choices, correct_index
		 FROM quiz_questions WHERE item_id = ? ORDER BY position ASC`,
		itemID.String(),
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	questions := []domain.QuizQuestion{}
	for rows.Next() {
		var q domain.QuizQuestion
		var id, choices string
		if err := rows.Scan(&id, &q.Position, &q.Question, &choices, &q.CorrectIndex); err != nil {
			return nil, MapError(err)
		}
		if q.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid quiz question id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, fmt.Errorf("failed to decode quiz choices: %w", err)
		}
		q.ItemID = itemID
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return questions, nil
}
