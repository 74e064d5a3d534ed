package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestRunInTransaction(t *testing.T) {
	fnErr := errors.New("append failed")
	driverErr := errors.New("driver exploded")

	tests := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		fnErr     error
		wantIs    error
		wantInMsg string
	}{
		{
			name: "commits on success",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back and returns the function error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fnErr:  fnErr,
			wantIs: fnErr,
		},
		{
			name: "begin failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(driverErr)
			},
			wantIs:    driverErr,
			wantInMsg: "failed to begin transaction",
		},
		{
			name: "commit failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(driverErr)
			},
			wantIs:    driverErr,
			wantInMsg: "failed to commit transaction",
		},
		{
			name: "rollback failure keeps the original error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errors.New("rollback failed"))
			},
			fnErr:     fnErr,
			wantIs:    fnErr,
			wantInMsg: "rollback failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)

			err := RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
				return tt.fnErr
			})

			if tt.wantIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantIs)
			if tt.wantInMsg != "" {
				assert.Contains(t, err.Error(), tt.wantInMsg)
			}
		})
	}
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	for _, rbErr := range []error{nil, errors.New("rollback failed")} {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(rbErr)

		assert.PanicsWithValue(t, "schedule corrupted", func() {
			_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
				panic("schedule corrupted")
			})
		})
	}
}

func TestDBTxRunner(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE flashcards").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var runner TxRunner = NewTxRunner(db)
	err := runner.RunInTransaction(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, "UPDATE flashcards SET version = version + 1")
		return execErr
	})
	assert.NoError(t, err)
}

func TestDBTxRunner_MapsCommitErrors(t *testing.T) {
	db, mock := newMockDB(t)
	serialization := errors.New("could not serialize access")
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(serialization)

	mapper := func(err error) error {
		if errors.Is(err, serialization) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}

	runner := NewTxRunner(db, WithErrorMapper(mapper))
	err := runner.RunInTransaction(context.Background(), func(context.Context, *sql.Tx) error { return nil })

	assert.True(t, IsConflictError(err))
	assert.Contains(t, err.Error(), "failed to commit transaction")
}

func TestDBTxRunner_DoesNotMapFunctionErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	runner := NewTxRunner(db, WithErrorMapper(func(error) error { return ErrConflict }))
	err := runner.RunInTransaction(context.Background(), func(context.Context, *sql.Tx) error {
		return ErrFlashcardNotFound
	})

	assert.ErrorIs(t, err, ErrFlashcardNotFound)
	assert.False(t, IsConflictError(err))
}

func TestNewTxRunnerPanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewTxRunner(nil) })
}
