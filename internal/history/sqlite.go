package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // sqlite driver
)

// Record is one finished job as stored in the execution log.
type Record struct {
	JobID      string     `json:"job_id"`
	Type       string     `json:"type"`
	Provider   string     `json:"provider"`
	Status     string     `json:"status"`
	Shots      int        `json:"shots"`
	Fidelity   float64    `json:"fidelity"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// SQLiteStore persists finished jobs. It satisfies the job store's Recorder
// interface.
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewSQLiteStore(logger *logrus.Logger, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers from blocking the recorder
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL,
			type TEXT NOT NULL,
			provider TEXT NOT NULL,
			status TEXT NOT NULL,
			shots INTEGER,
			fidelity REAL,
			started_at INTEGER,
			finished_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_finished_at ON executions(finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_job_id ON executions(job_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Record writes one finished job to the execution log.
func (s *SQLiteStore) Record(job *types.Job) error {
	var started, finished sql.NullInt64
	if job.StartedAt != nil {
		started = sql.NullInt64{Int64: job.StartedAt.Unix(), Valid: true}
	}
	if job.FinishedAt != nil {
		finished = sql.NullInt64{Int64: job.FinishedAt.Unix(), Valid: true}
	}

	var fidelity float64
	if job.Result != nil {
		fidelity = job.Result.Fidelity
	}

	_, err := s.db.Exec(`
		INSERT INTO executions (job_id, type, provider, status, shots, fidelity, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.Provider, string(job.Status), job.Shots, fidelity, started, finished)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest finish first.
func (s *SQLiteStore) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT job_id, type, provider, status, shots, fidelity, started_at, finished_at
		FROM executions
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var started, finished sql.NullInt64
		var fidelity sql.NullFloat64

		err := rows.Scan(&rec.JobID, &rec.Type, &rec.Provider, &rec.Status, &rec.Shots, &fidelity, &started, &finished)
		if err != nil {
			s.logger.Warnf("Failed to scan execution row: %v", err)
			continue
		}

		if fidelity.Valid {
			rec.Fidelity = fidelity.Float64
		}
		if started.Valid {
			t := time.Unix(started.Int64, 0).UTC()
			rec.StartedAt = &t
		}
		if finished.Valid {
			t := time.Unix(finished.Int64, 0).UTC()
			rec.FinishedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NopRecorder is used when history is disabled or the database failed to
// open; job flow never depends on the recorder.
type NopRecorder struct{}

func (NopRecorder) Record(*types.Job) error { return nil }

func (NopRecorder) Recent(int) ([]Record, error) { return []Record{}, nil }
