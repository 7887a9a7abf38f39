// Package journal provides durable storage for runs and their executed
// operations.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"tidy-go/internal/journal/migrations"
	"tidy-go/internal/organizer"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements the Journal interface using SQLite. One instance
// serializes all writes through a mutex; entries are append-only except for
// the DONE to REVERSED status transition.
type SQLiteJournal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens (and migrates) the journal at path. path can be a
// file path or ":memory:" for an in-memory journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the journal needs. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (j *SQLiteJournal) BeginRun(run organizer.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO runs (id, mode, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Mode, run.Status, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) FinishRun(runID string, status string, counts organizer.RunCounts) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`UPDATE runs
		 SET status = ?, finished_at = ?,
		     planned_count = ?, completed_count = ?, failed_count = ?, skipped_count = ?
		 WHERE id = ?`,
		status, time.Now().UTC(),
		counts.Planned, counts.Completed, counts.Failed, counts.Skipped,
		runID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Append(op organizer.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO operations (id, run_id, seq, kind, source, destination, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.RunID, op.Seq, string(op.Kind), op.Source, op.Destination,
		string(op.Reason), string(op.Status), op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending operation: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) OperationsForRun(runID string) ([]organizer.Operation, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, seq, kind, source, destination, reason, status, created_at
		 FROM operations WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("reading operations for run: %w", err)
	}
	defer rows.Close()
	return scanOperations(rows)
}

func (j *SQLiteJournal) Operations() ([]organizer.Operation, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, seq, kind, source, destination, reason, status, created_at
		 FROM operations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("reading operations: %w", err)
	}
	defer rows.Close()
	return scanOperations(rows)
}

func scanOperations(rows *sql.Rows) ([]organizer.Operation, error) {
	var ops []organizer.Operation
	for rows.Next() {
		var op organizer.Operation
		var kind, reason, status string
		if err := rows.Scan(&op.ID, &op.RunID, &op.Seq, &kind, &op.Source,
			&op.Destination, &reason, &status, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		op.Kind = organizer.OperationKind(kind)
		op.Reason = organizer.Reason(reason)
		op.Status = organizer.OperationStatus(status)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

func (j *SQLiteJournal) MarkReversed(opID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(
		`UPDATE operations SET status = ? WHERE id = ? AND status = ?`,
		string(organizer.StatusReversed), opID, string(organizer.StatusDone),
	)
	if err != nil {
		return fmt.Errorf("marking operation reversed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking operation reversed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("operation %s not found or not in DONE state", opID)
	}
	return nil
}

func (j *SQLiteJournal) Runs(limit int) ([]organizer.Run, error) {
	rows, err := j.db.Query(
		`SELECT id, mode, status, started_at, finished_at,
		        planned_count, completed_count, failed_count, skipped_count
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []organizer.Run
	for rows.Next() {
		var run organizer.Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Mode, &run.Status, &run.StartedAt, &finished,
			&run.Counts.Planned, &run.Counts.Completed, &run.Counts.Failed,
			&run.Counts.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// SnapshotTo creates a complete copy of the journal at destPath using
// VACUUM INTO.
func (j *SQLiteJournal) SnapshotTo(destPath string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("snapshotting journal: %w", err)
	}
	return nil
}

// Path returns the journal file path (or ":memory:").
func (j *SQLiteJournal) Path() string {
	return j.path
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteJournal implements the Journal interface
var _ organizer.Journal = (*SQLiteJournal)(nil)
