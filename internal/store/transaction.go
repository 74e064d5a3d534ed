package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/learnloop/learnloop-api/internal/platform/logger"
)

// TxFn runs inside a transaction. Returning an error rolls the transaction
// back; returning nil commits it.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn TxFn) error
}

// ErrorMapper translates driver errors into store sentinels.
type ErrorMapper func(error) error

// DBTxRunner implements TxRunner on top of a *sql.DB.
type DBTxRunner struct {
	db     *sql.DB
	mapErr ErrorMapper
}

var _ TxRunner = (*DBTxRunner)(nil)

// TxRunnerOption configures a DBTxRunner.
type TxRunnerOption func(*DBTxRunner)

// WithErrorMapper makes the runner translate begin and commit failures with
// m, so a serialization failure reported at commit surfaces as ErrConflict.
func WithErrorMapper(m ErrorMapper) TxRunnerOption {
	return func(r *DBTxRunner) {
		r.mapErr = m
	}
}

// NewTxRunner creates a TxRunner for db.
func NewTxRunner(db *sql.DB, opts ...TxRunnerOption) *DBTxRunner {
	if db == nil {
		panic("db cannot be nil")
	}
	r := &DBTxRunner{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunInTransaction implements TxRunner.
func (r *DBTxRunner) RunInTransaction(ctx context.Context, fn TxFn) error {
	return runInTransaction(ctx, r.db, fn, r.mapErr)
}

// RunInTransaction runs fn in a transaction on db without error mapping.
// A panic in fn rolls the transaction back and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	return runInTransaction(ctx, db, fn, nil)
}

func runInTransaction(ctx context.Context, db *sql.DB, fn TxFn, mapErr ErrorMapper) error {
	log := logger.FromContext(ctx)
	if mapErr == nil {
		mapErr = func(err error) error { return err }
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", mapErr(err))
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction after panic",
				slog.String("error", rbErr.Error()),
				slog.Any("panic", p))
		} else {
			log.Error("rolled back transaction after panic", slog.Any("panic", p))
		}
		// ALLOW-PANIC: re-raise after rollback
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		log.Debug("rolled back transaction", slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", mapErr(err))
	}

	log.Debug("transaction committed")
	return nil
}
