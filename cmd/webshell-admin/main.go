package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/bootstrap"
	"github.com/target/webshell/internal/data"
	"github.com/target/webshell/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

// adminApp carries what every subcommand needs. Tests replace the loaders.
type adminApp struct {
	Logger     *slog.Logger
	Config     config.AppConfig
	LoadConfig func() (config.AppConfig, error)
	OpenDB     func(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*sql.DB, error)
	OpenRoles  func(ctx context.Context, app *adminApp) (roleStore, func(), error)
}

func main() {
	logger := bootstrap.InitLogger(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(newAdminApp(logger))
	if err := root.ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newAdminApp(logger *slog.Logger) *adminApp {
	return &adminApp{
		Logger:     logger,
		LoadConfig: bootstrap.LoadConfig,
		OpenDB:     openDB,
		OpenRoles:  openRoleRepo,
	}
}

func newRootCmd(app *adminApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "webshell-admin",
		Short:         "Administrative tasks for the webshell server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			app.Config = cfg
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(app),
		newRolesCmd(app),
		newTokenCmd(app),
		newCheckRoleCmd(app),
	)
	return root
}

func newMigrateCmd(app *adminApp) *cobra.Command {
	timeout := defaultMigrationTimeout
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the role directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if timeout <= 0 {
				return errors.New("timeout must be positive")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := app.OpenDB(ctx, app.Config, app.Logger)
			if err != nil {
				return err
			}
			defer closeDB(app.Logger, db)

			app.Logger.Info("running database migrations")
			if err := bootstrap.RunMigrations(ctx, db, app.Logger); err != nil {
				return err
			}
			return writef(cmd.OutOrStdout(), "migrations completed\n")
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "maximum time to wait for migrations")
	cmd.AddCommand(newMigrateStatusCmd(app))
	return cmd
}

func newMigrateStatusCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations that have not been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.OpenDB(cmd.Context(), app.Config, app.Logger)
			if err != nil {
				return err
			}
			defer closeDB(app.Logger, db)

			pending, err := migrate.Pending(cmd.Context(), db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				return writef(out, "schema is up to date\n")
			}
			for _, m := range pending {
				if err := writef(out, "pending\t%s\n", m.Version); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// openDB connects to Postgres even when the server has the role directory disabled.
func openDB(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*sql.DB, error) {
	dbCfg := cfg.Postgres
	dbCfg.Enabled = true
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: dbCfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

//nolint:ireturn // subcommands only need the roleStore surface.
func openRoleRepo(ctx context.Context, app *adminApp) (roleStore, func(), error) {
	db, err := app.OpenDB(ctx, app.Config, app.Logger)
	if err != nil {
		return nil, nil, err
	}
	return data.NewRoleRepo(db), func() { closeDB(app.Logger, db) }, nil
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
