package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/learnloop/learnloop-api/internal/platform/sqlite"
	"github.com/learnloop/learnloop-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "errors.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER NOT NULL REFERENCES parent(id),
			code TEXT UNIQUE,
			amount INTEGER CHECK (amount >= 0)
		);
		INSERT INTO parent (id) VALUES (1);
		INSERT INTO child (id, parent_id, code, amount) VALUES (1, 1, 'a', 1);
	`)
	require.NoError(t, err)

	tests := []struct {
		name    string
		stmt    string
		wantErr error
	}{
		{"primary key", `INSERT INTO child (id, parent_id) VALUES (1, 1)`, store.ErrDuplicate},
		{"unique", `INSERT INTO child (id, parent_id, code) VALUES (2, 1, 'a')`, store.ErrDuplicate},
		{"foreign key", `INSERT INTO child (id, parent_id) VALUES (3, 99)`, store.ErrInvalidEntity},
		{"check", `INSERT INTO child (id, parent_id, amount) VALUES (4, 1, -1)`, store.ErrInvalidEntity},
		{"not null", `INSERT INTO child (id) VALUES (5)`, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.stmt)
			require.Error(t, err)

			mapped := sqlite.MapError(err)
			assert.ErrorIs(t, mapped, tt.wantErr)
			assert.Contains(t, mapped.Error(), err.Error(), "original error is kept in the message")
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, sqlite.MapError(nil))
	})

	t.Run("no rows", func(t *testing.T) {
		assert.ErrorIs(t, sqlite.MapError(sql.ErrNoRows), store.ErrNotFound)
	})

	t.Run("unrelated error passes through", func(t *testing.T) {
		plain := errors.New("plain")
		assert.Equal(t, plain, sqlite.MapError(plain))
	})
}
