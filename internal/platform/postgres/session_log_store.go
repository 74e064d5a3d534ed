package postgres

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

// PostgresSessionLogStore implements the store.SessionLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionLogStore creates a new PostgreSQL implementation of the SessionLogStore interface.
func NewPostgresSessionLogStore(db store.DBTX, logger *slog.Logger) *PostgresSessionLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_log_store")),
	}
}

var _ store.SessionLogStore = (*PostgresSessionLogStore)(nil)

// WithTx implements store.SessionLogStore.WithTx
func (s *PostgresSessionLogStore) WithTx(tx *sql.Tx) store.SessionLogStore {
	return &PostgresSessionLogStore{db: tx, logger: s.logger}
}

// Append implements store.SessionLogStore.Append
func (s *PostgresSessionLogStore) Append(ctx context.Context, entry *domain.SessionLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("session log validation failed",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	metadata := string(entry.Metadata)
	if metadata == "" {
		metadata = "{}"
	}

	query := `
		INSERT INTO session_logs (id, owner_id, kind, score, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		string(entry.Kind),
		entry.Score,
		metadata,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to append session log entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("kind", string(entry.Kind)))
		return MapError(err)
	}

	log.Debug("session log entry appended",
		slog.String("entry_id", entry.ID.String()),
		slog.String("kind", string(entry.Kind)))
	return nil
}

// ListRecent implements store.SessionLogStore.ListRecent
func (s *PostgresSessionLogStore) ListRecent(
	ctx context.Context,
	ownerID uuid.UUID,
	kind domain.SessionKind,
	limit int,
) ([]*domain.SessionLogEntry, error) {
	query := `
		SELECT id, owner_id, kind, score, metadata, created_at
		FROM session_logs
		WHERE owner_id = $1 AND kind = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, string(kind), limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list session log entries",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.SessionLogEntry{}
	for rows.Next() {
		var e domain.SessionLogEntry
		var kindStr string
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &kindStr, &e.Score, &metadata, &e.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		e.Kind = domain.SessionKind(kindStr)
		e.Metadata = metadata
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}
