package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/learnloop/learnloop-api/internal/config"
	"github.com/learnloop/learnloop-api/internal/domain/srs"
	"github.com/learnloop/learnloop-api/internal/platform/migrate"
	"github.com/learnloop/learnloop-api/internal/platform/postgres"
	"github.com/learnloop/learnloop-api/internal/platform/sqlite"
	"github.com/learnloop/learnloop-api/internal/service/auth"
	"github.com/learnloop/learnloop-api/internal/service/study"
	"github.com/learnloop/learnloop-api/internal/store"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores       study.Stores
	jwtService   auth.JWTService
	studyService study.Service
}

// backend bundles what the server needs from one storage driver.
type backend struct {
	open        func(ctx context.Context, dsn string) (*sql.DB, error)
	newMigrator func(db *sql.DB, logger *slog.Logger) (*migrate.Migrator, error)
	newStores   func(db store.DBTX, logger *slog.Logger) study.Stores
	mapError    store.ErrorMapper
}

var backends = map[string]backend{
	"postgres": {
		open:        postgres.Open,
		newMigrator: postgres.NewMigrator,
		newStores: func(db store.DBTX, logger *slog.Logger) study.Stores {
			return study.Stores{
				Items:     postgres.NewPostgresItemStore(db, logger),
				Questions: postgres.NewPostgresQuizQuestionStore(db, logger),
				Cards:     postgres.NewPostgresFlashcardStore(db, logger),
				Logs:      postgres.NewPostgresSessionLogStore(db, logger),
			}
		},
		mapError: postgres.MapError,
	},
	"sqlite": {
		open:        sqlite.Open,
		newMigrator: sqlite.NewMigrator,
		newStores: func(db store.DBTX, logger *slog.Logger) study.Stores {
			return study.Stores{
				Items:     sqlite.NewSQLiteItemStore(db, logger),
				Questions: sqlite.NewSQLiteQuizQuestionStore(db, logger),
				Cards:     sqlite.NewSQLiteFlashcardStore(db, logger),
				Logs:      sqlite.NewSQLiteSessionLogStore(db, logger),
			}
		},
		mapError: sqlite.MapError,
	},
}

func lookupBackend(driver string) (backend, error) {
	b, ok := backends[driver]
	if !ok {
		return backend{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return b, nil
}

// openDatabase connects to the backend selected by cfg.Driver.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	b, err := lookupBackend(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return b.open(ctx, cfg.URL)
}

// newMigrator returns the migrator matching driver.
func newMigrator(driver string, db *sql.DB, logger *slog.Logger) (*migrate.Migrator, error) {
	b, err := lookupBackend(driver)
	if err != nil {
		return nil, err
	}
	return b.newMigrator(db, logger)
}

// studyConfig converts the study settings into the service configuration.
func studyConfig(cfg config.StudyConfig) study.Config {
	sc := study.DefaultConfig()
	sc.DefaultQueueLimit = cfg.DefaultQueueLimit
	sc.MaxQueueLimit = cfg.MaxQueueLimit
	sc.TrendSize = cfg.TrendSize
	sc.Location = cfg.Location()
	sc.MaxConflictRetries = cfg.MaxConflictRetries
	return sc
}

// newApplication wires stores and services on top of an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	b, err := lookupBackend(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	app.stores = b.newStores(db, logger)

	app.studyService = study.NewService(
		app.stores,
		store.NewTxRunner(db, store.WithErrorMapper(b.mapError)),
		srs.NewDefaultService(),
		studyConfig(cfg.Study),
		logger,
	)
	logger.Info("study service initialized",
		slog.String("driver", cfg.Database.Driver),
		slog.String("time_zone", cfg.Study.TimeZone))

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
		}
	}
}
