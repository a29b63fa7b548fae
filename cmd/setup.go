package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
//
// A config file is created from the template first when none exists.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
			}
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	r.logger.Info("running database migrations", "path", r.config.Database.Path)
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back latest migration\n")
}

// SetupConfig writes the config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: --config path is empty", shared.ErrMissingArgument)
	}

	if cmd.Bool("force") {
		if err := os.Remove(r.configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n\n", r.configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set client_id and client_secret (or CLIENT_ID / CLIENT_SECRET in .env)\n")
	r.writePlain("2. Run 'chronolist auth' to authorize\n")
	return nil
}

// openDatabase opens the configured database once and reuses it for the rest of the command.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	if r.config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	r.db = db
	return db, nil
}
