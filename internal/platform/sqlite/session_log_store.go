package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/store"
)

// SQLiteSessionLogStore implements store.SessionLogStore on SQLite.
type SQLiteSessionLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteSessionLogStore creates a SQLiteSessionLogStore.
func NewSQLiteSessionLogStore(db store.DBTX, logger *slog.Logger) *SQLiteSessionLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSessionLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_log_store")),
	}
}

var _ store.SessionLogStore = (*SQLiteSessionLogStore)(nil)

// WithTx implements store.SessionLogStore.WithTx
func (s *SQLiteSessionLogStore) WithTx(tx *sql.Tx) store.SessionLogStore {
	return &SQLiteSessionLogStore{db: tx, logger: s.logger}
}

// Append implements store.SessionLogStore.Append
func (s *SQLiteSessionLogStore) Append(ctx context.Context, entry *domain.SessionLogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	metadata := string(entry.Metadata)
	if metadata == "" {
		metadata = "{}"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_logs (id, owner_id, kind, score, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.OwnerID.String(),
		string(entry.Kind),
		entry.Score,
		metadata,
		toMicros(entry.CreatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append session log entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return MapError(err)
	}
	return nil
}

// ListRecent implements store.SessionLogStore.ListRecent
func (s *SQLiteSessionLogStore) ListRecent(
	ctx context.Context,
	ownerID uuid.UUID,
	kind domain.SessionKind,
	limit int,
) ([]*domain.SessionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, metadata, created_at
		 FROM session_logs
		 WHERE owner_id = ? AND kind = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		ownerID.String(), string(kind), limit,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.SessionLogEntry{}
	for rows.Next() {
		var id, metadata string
		var created int64
		e := &domain.SessionLogEntry{OwnerID: ownerID, Kind: kind}
		if err := rows.Scan(&id, &e.Score, &metadata, &created); err != nil {
			return nil, MapError(err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid session log id %q: %w", id, err)
		}
		e.Metadata = []byte(metadata)
		e.CreatedAt = fromMicros(created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return entries, nil
}
