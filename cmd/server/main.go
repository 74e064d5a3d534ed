// Package main is the learnloop-api command: it serves the study API,
// migrates the database and mints development tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/config"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/platform/migrate"
	"github.com/learnloop/learnloop-api/internal/service/auth"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Logs go to the command's stderr and
// command results to its stdout.
func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "learnloop-api",
		Short:         "Spaced repetition study API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to a config file (default ./config.yaml when present)")

	root.AddCommand(
		newServeCmd(&configFile),
		newMigrateCmd(&configFile),
		newTokenCmd(&configFile),
	)
	return root
}

// loadConfig loads configuration and installs the logger writing to out.
func loadConfig(configFile string, out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))
	return cfg, log, nil
}

func newServeCmd(configFile *string) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}

			if migrateFirst {
				m, err := newMigrator(cfg.Database.Driver, db, log)
				if err != nil {
					_ = db.Close()
					return err
				}
				if err := m.Up(ctx); err != nil {
					_ = db.Close()
					return err
				}
			}

			app, err := newApplication(cfg, log, db)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			return app.startHTTPServer(ctx, app.setupRouter())
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus, migrate.CommandVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			m, err := newMigrator(cfg.Database.Driver, db, log)
			if err != nil {
				return err
			}

			if args[0] == migrate.CommandVersion {
				v, err := m.Version(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return err
			}
			return m.Run(ctx, args[0])
		},
	}
}

func newTokenCmd(configFile *string) *cobra.Command {
	var lifetime time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access token for a user, for development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			cfg, _, err := loadConfig(*configFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if lifetime > 0 {
				cfg.Auth.TokenLifetimeMinutes = int(lifetime.Minutes())
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}

			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&lifetime, "lifetime", 0, "token lifetime (default auth.token_lifetime_minutes)")
	return cmd
}
