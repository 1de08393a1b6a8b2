// Package store indexes batch experiment results in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/telemetry"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("run index closed")

// RunIndex records batches, their replicate runs and per-metric summaries.
// It is safe for concurrent use by batch workers.
type RunIndex struct {
	mu sync.Mutex
	db *sql.DB
}

// Batch is one row of the batches table.
type Batch struct {
	ID        int64
	Label     string
	StartedAt time.Time
	Reps      int
	BaseSeed  int64
	Config    string // YAML
}

// Open opens or creates the index at path.
func Open(path string) (*RunIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RunIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			started_at TEXT NOT NULL,
			reps INTEGER NOT NULL,
			base_seed INTEGER NOT NULL,
			config_yaml TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			rep INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			end_time REAL NOT NULL,
			events INTEGER NOT NULL,
			infected INTEGER NOT NULL,
			uninfected INTEGER NOT NULL,
			infected_fraction REAL NOT NULL,
			deaths_starvation INTEGER NOT NULL,
			deaths_age INTEGER NOT NULL,
			wealth_mean REAL NOT NULL,
			mean_pool_distance REAL NOT NULL,
			wall_seconds REAL NOT NULL,
			PRIMARY KEY (batch_id, rep)
		);`,
		`CREATE TABLE IF NOT EXISTS summaries (
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			metric TEXT NOT NULL,
			n INTEGER NOT NULL,
			mean REAL NOT NULL,
			std REAL NOT NULL,
			min REAL NOT NULL,
			median REAL NOT NULL,
			max REAL NOT NULL,
			PRIMARY KEY (batch_id, metric)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_seed ON runs(seed);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (ix *RunIndex) conn() (*sql.DB, error) {
	if ix.db == nil {
		return nil, ErrClosed
	}
	return ix.db, nil
}

// BeginBatch records a new batch and returns its ID.
func (ix *RunIndex) BeginBatch(ctx context.Context, label string, cfg *config.Config, reps int) (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return 0, err
	}

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshaling config: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO batches(label, started_at, reps, base_seed, config_yaml) VALUES(?,?,?,?,?)`,
		label, time.Now().UTC().Format(time.RFC3339Nano), reps, cfg.Run.Seed, string(cfgYAML))
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	return res.LastInsertId()
}

// RecordRun stores one replicate's end state. Recording the same rep twice replaces it.
func (ix *RunIndex) RecordRun(ctx context.Context, batchID int64, r telemetry.RunSummary) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(batch_id, rep, seed, end_time, events, infected, uninfected,
			infected_fraction, deaths_starvation, deaths_age, wealth_mean, mean_pool_distance, wall_seconds)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		batchID, r.Rep, r.Seed, r.EndTime, int64(r.Events), r.Infected, r.Uninfected,
		r.InfectedFraction, r.DeathsStarvation, r.DeathsAge, r.WealthMean, r.MeanPoolDistance, r.WallSeconds)
	if err != nil {
		return fmt.Errorf("insert run %d: %w", r.Rep, err)
	}
	return nil
}

// RecordSummary stores the per-metric summaries of a batch in one transaction.
func (ix *RunIndex) RecordSummary(ctx context.Context, batchID int64, ms []telemetry.MetricSummary) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO summaries(batch_id, metric, n, mean, std, min, median, max) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, batchID, m.Metric, m.N, m.Mean, m.Std, m.Min, m.Median, m.Max); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert summary %s: %w", m.Metric, err)
		}
	}
	return tx.Commit()
}

// Runs returns the recorded runs of a batch ordered by rep.
func (ix *RunIndex) Runs(ctx context.Context, batchID int64) ([]telemetry.RunSummary, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT rep, seed, end_time, events, infected, uninfected, infected_fraction,
			deaths_starvation, deaths_age, wealth_mean, mean_pool_distance, wall_seconds
		FROM runs WHERE batch_id=? ORDER BY rep`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.RunSummary
	for rows.Next() {
		var r telemetry.RunSummary
		var events int64
		if err := rows.Scan(&r.Rep, &r.Seed, &r.EndTime, &events, &r.Infected, &r.Uninfected,
			&r.InfectedFraction, &r.DeathsStarvation, &r.DeathsAge, &r.WealthMean,
			&r.MeanPoolDistance, &r.WallSeconds); err != nil {
			return nil, err
		}
		r.Events = uint64(events)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary returns the stored metric summaries of a batch ordered by metric name.
func (ix *RunIndex) Summary(ctx context.Context, batchID int64) ([]telemetry.MetricSummary, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT metric, n, mean, std, min, median, max FROM summaries WHERE batch_id=? ORDER BY metric`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.MetricSummary
	for rows.Next() {
		var m telemetry.MetricSummary
		if err := rows.Scan(&m.Metric, &m.N, &m.Mean, &m.Std, &m.Min, &m.Median, &m.Max); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Batches lists every recorded batch, newest first.
func (ix *RunIndex) Batches(ctx context.Context) ([]Batch, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	db, err := ix.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, label, started_at, reps, base_seed, config_yaml FROM batches ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		var started string
		if err := rows.Scan(&b.ID, &b.Label, &started, &b.Reps, &b.BaseSeed, &b.Config); err != nil {
			return nil, err
		}
		if b.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("batch %d started_at: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close closes the database. Further calls return ErrClosed.
func (ix *RunIndex) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}
