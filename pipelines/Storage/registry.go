// Package storage persists training run history in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
)

// TrainingRun records one end-to-end training run and its results.
type TrainingRun struct {
	RunID         string             `json:"run_id"`
	CreatedAt     time.Time          `json:"created_at"`
	DatasetPath   string             `json:"dataset_path"`
	Records       int                `json:"records"`
	BestAlgorithm string             `json:"best_algorithm"`
	Threshold     float64            `json:"threshold"`
	ArtifactPath  string             `json:"artifact_path"`
	Reports       []ml.VariantReport `json:"reports"`
}

// Registry stores training runs in a local SQLite database.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (or creates) the registry database. WAL mode keeps
// the scoring server readable while a training run writes.
func OpenRegistry(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to registry database: %w", err)
	}

	r := &Registry{db: db}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("Training run registry opened")
	return r, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_runs (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		dataset_path TEXT NOT NULL,
		records INTEGER NOT NULL,
		best_algorithm TEXT NOT NULL,
		threshold REAL NOT NULL,
		artifact_path TEXT NOT NULL,
		reports TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS variant_metrics (
		run_id TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		roc_auc REAL,
		accuracy REAL,
		f1 REAL,
		cost REAL NOT NULL,
		train_seconds REAL NOT NULL,
		PRIMARY KEY (run_id, algorithm),
		FOREIGN KEY (run_id) REFERENCES training_runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON training_runs(created_at DESC);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("creating registry tables: %w", err)
	}
	return nil
}

// SaveRun stores a run and its per-variant metrics in one transaction.
func (r *Registry) SaveRun(run *TrainingRun) error {
	reports, err := json.Marshal(run.Reports)
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO training_runs (run_id, created_at, dataset_path, records, best_algorithm, threshold, artifact_path, reports)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, run.DatasetPath, run.Records, run.BestAlgorithm, run.Threshold, run.ArtifactPath, string(reports))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}

	for _, report := range run.Reports {
		_, err = tx.Exec(`
			INSERT INTO variant_metrics (run_id, algorithm, roc_auc, accuracy, f1, cost, train_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, report.Algorithm,
			nullableMetric(report.ROCAUC), nullableMetric(report.Accuracy), nullableMetric(report.F1),
			report.Cost, report.TrainSeconds)
		if err != nil {
			return fmt.Errorf("inserting metrics for %s/%s: %w", run.RunID, report.Algorithm, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.RunID, err)
	}
	log.Info().Str("run_id", run.RunID).Str("best", run.BestAlgorithm).Msg("Training run recorded")
	return nil
}

// GetRun loads one run by id.
func (r *Registry) GetRun(runID string) (*TrainingRun, error) {
	row := r.db.QueryRow(`
		SELECT run_id, created_at, dataset_path, records, best_algorithm, threshold, artifact_path, reports
		FROM training_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("training run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns runs newest first, up to limit.
func (r *Registry) ListRuns(limit int) ([]*TrainingRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT run_id, created_at, dataset_path, records, best_algorithm, threshold, artifact_path, reports
		FROM training_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*TrainingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*TrainingRun, error) {
	var run TrainingRun
	var reports string
	err := row.Scan(&run.RunID, &run.CreatedAt, &run.DatasetPath, &run.Records,
		&run.BestAlgorithm, &run.Threshold, &run.ArtifactPath, &reports)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reports), &run.Reports); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}
	return &run, nil
}

// nullableMetric maps an undefined metric to SQL NULL.
func nullableMetric(m ml.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Defined}
}
