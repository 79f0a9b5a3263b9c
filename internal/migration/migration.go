package migration

import (
	"context"

	"eosphase/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run ledger schema. Statements are portable
// between SQLite and PostgreSQL and safe to repeat.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createTrainingRunsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create training_runs table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

func (r *MigrationRunner) createTrainingRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS training_runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			model_kind TEXT NOT NULL,
			seed BIGINT NOT NULL,
			test_fraction DOUBLE PRECISION NOT NULL,
			fit_stats_on TEXT NOT NULL,
			data_path TEXT NOT NULL,
			data_hash TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			code_version TEXT NOT NULL,
			train_rows INTEGER NOT NULL,
			eval_rows INTEGER NOT NULL,
			train_accuracy DOUBLE PRECISION NOT NULL,
			test_accuracy DOUBLE PRECISION NOT NULL,
			model_path TEXT NOT NULL,
			metrics_json TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_training_runs_created_at ON training_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_training_runs_data_hash ON training_runs(data_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_training_runs_fingerprint ON training_runs(fingerprint)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
