// Package ledger records training runs in SQLite or PostgreSQL.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eosphase/domain/core"
	"eosphase/domain/run"
	"eosphase/internal"
	"eosphase/internal/errors"
	"eosphase/internal/migration"
	"eosphase/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var _ ports.LedgerPort = (*Ledger)(nil)

// runRow mirrors the training_runs table.
type runRow struct {
	ID            string  `db:"id"`
	CreatedAt     string  `db:"created_at"`
	ModelKind     string  `db:"model_kind"`
	Seed          int64   `db:"seed"`
	TestFraction  float64 `db:"test_fraction"`
	FitStatsOn    string  `db:"fit_stats_on"`
	DataPath      string  `db:"data_path"`
	DataHash      string  `db:"data_hash"`
	Fingerprint   string  `db:"fingerprint"`
	CodeVersion   string  `db:"code_version"`
	TrainRows     int     `db:"train_rows"`
	EvalRows      int     `db:"eval_rows"`
	TrainAccuracy float64 `db:"train_accuracy"`
	TestAccuracy  float64 `db:"test_accuracy"`
	ModelPath     string  `db:"model_path"`
	MetricsJSON   string  `db:"metrics_json"`
}

// createdAtLayout has a fixed width so text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `id, created_at, model_kind, seed, test_fraction, fit_stats_on,
	data_path, data_hash, fingerprint, code_version, train_rows, eval_rows,
	train_accuracy, test_accuracy, model_path, metrics_json`

// Ledger is a run repository backed by sqlx.
type Ledger struct {
	db     *sqlx.DB
	driver string
	logger *internal.Logger
}

// ParseDSN picks the driver for a DSN: postgres:// and postgresql:// URLs use
// lib/pq, sqlite:// URLs and bare paths use SQLite.
func ParseDSN(dsn string) (driver, source string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", core.NewConfigError("ledger", "empty DSN")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		source = strings.TrimPrefix(dsn, "sqlite://")
	default:
		if i := strings.Index(dsn, "://"); i >= 0 {
			return "", "", core.NewConfigError("ledger", fmt.Sprintf("unsupported DSN scheme %q", dsn[:i]))
		}
		source = dsn
	}
	if source == "" {
		return "", "", core.NewConfigError("ledger", "sqlite DSN has no path")
	}
	if source != ":memory:" && !strings.Contains(source, "?") {
		source += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return "sqlite", source, nil
}

// Open connects to the DSN and applies migrations.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "open %s ledger", driver))
	}
	if driver == "sqlite" {
		// One connection keeps in-memory databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "connect to %s ledger", driver))
	}
	return NewLedger(ctx, db, driver)
}

// NewLedger wraps an open connection and applies migrations.
func NewLedger(ctx context.Context, db *sqlx.DB, driver string) (*Ledger, error) {
	var m migration.Migrator = migration.NewRunner()
	if err := m.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	l := &Ledger{db: db, driver: driver, logger: internal.NewDefaultLogger("ledger")}
	l.logger.Debug("%s ledger ready (schema %s)", driver, m.Version())
	return l, nil
}

// WithLogger replaces the ledger's logger.
func (l *Ledger) WithLogger(logger *internal.Logger) *Ledger {
	l.logger = logger
	return l
}

// Driver returns the database driver name.
func (l *Ledger) Driver() string { return l.driver }

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts a run. metrics must be a JSON document.
func (l *Ledger) Record(ctx context.Context, m *run.RunManifest, metrics []byte) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !json.Valid(metrics) {
		return errors.InvalidInput("metrics is not valid JSON")
	}

	fp := m.Fingerprint
	row := runRow{
		ID:            m.RunID.String(),
		CreatedAt:     m.CreatedAt.UTC().Format(createdAtLayout),
		ModelKind:     fp.ModelKind,
		Seed:          fp.Seed,
		TestFraction:  fp.TestFraction,
		FitStatsOn:    fp.FitStatsOn,
		DataPath:      m.DataPath,
		DataHash:      fp.DataHash.String(),
		Fingerprint:   fp.Fingerprint.String(),
		CodeVersion:   fp.CodeVersion,
		TrainRows:     m.TrainRows,
		EvalRows:      m.EvalRows,
		TrainAccuracy: m.TrainAccuracy,
		TestAccuracy:  m.TestAccuracy,
		ModelPath:     m.ModelPath,
		MetricsJSON:   string(metrics),
	}

	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO training_runs (
			id, created_at, model_kind, seed, test_fraction, fit_stats_on,
			data_path, data_hash, fingerprint, code_version, train_rows, eval_rows,
			train_accuracy, test_accuracy, model_path, metrics_json
		) VALUES (
			:id, :created_at, :model_kind, :seed, :test_fraction, :fit_stats_on,
			:data_path, :data_hash, :fingerprint, :code_version, :train_rows, :eval_rows,
			:train_accuracy, :test_accuracy, :model_path, :metrics_json
		)
	`, row)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "record run %s", row.ID))
	}
	l.logger.Info("recorded run %s (%s, test accuracy %.4f)", row.ID, row.ModelKind, row.TestAccuracy)
	return nil
}

// List returns the most recent runs first. limit <= 0 returns every run.
func (l *Ledger) List(ctx context.Context, limit int) ([]*run.LedgerEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM training_runs ORDER BY created_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []runRow
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(query), args...); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "list runs"))
	}

	entries := make([]*run.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Get returns one run by ID.
func (l *Ledger) Get(ctx context.Context, id core.RunID) (*run.LedgerEntry, error) {
	var row runRow
	err := l.db.GetContext(ctx, &row,
		l.db.Rebind(`SELECT `+selectColumns+` FROM training_runs WHERE id = ?`), id.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "get run %s", id))
	}
	return row.entry()
}

func (r runRow) entry() (*run.LedgerEntry, error) {
	created, err := time.Parse(createdAtLayout, r.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s has malformed created_at %q", r.ID, r.CreatedAt)
	}
	return &run.LedgerEntry{
		Manifest: run.RunManifest{
			RunID:         core.RunID(r.ID),
			CreatedAt:     created,
			DataPath:      r.DataPath,
			ModelPath:     r.ModelPath,
			TrainRows:     r.TrainRows,
			EvalRows:      r.EvalRows,
			TrainAccuracy: r.TrainAccuracy,
			TestAccuracy:  r.TestAccuracy,
			Fingerprint: run.RunFingerprint{
				DataHash:     core.Hash(r.DataHash),
				ModelKind:    r.ModelKind,
				Seed:         r.Seed,
				TestFraction: r.TestFraction,
				FitStatsOn:   r.FitStatsOn,
				CodeVersion:  r.CodeVersion,
				Fingerprint:  core.Hash(r.Fingerprint),
			},
		},
		Metrics: json.RawMessage(r.MetricsJSON),
	}, nil
}
