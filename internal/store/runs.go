package store

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
)

// RunStore persists an audit trail of finished runs. Records are
// written once when a run ends and never consulted during execution.
type RunStore struct {
	DB *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT,
			request TEXT,
			state TEXT,
			reason TEXT,
			steps_planned INTEGER,
			steps_executed INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS step_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER,
			output_ref TEXT,
			failed INTEGER,
			content TEXT
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			return nil, err
		}
	}

	return &RunStore{DB: db}, nil
}

// RunRecord is one finished run, flattened for storage.
type RunRecord struct {
	Session  string
	Request  string
	State    string
	Reason   string
	Planned  int
	Executed int
}

// StepRecord is one stored step result belonging to a run.
type StepRecord struct {
	Ref     string
	Failed  bool
	Content string
}

// RecordRun writes the run and its step results in one transaction.
func (s *RunStore) RecordRun(rec RunRecord, steps []StepRecord) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO runs (session, request, state, reason, steps_planned, steps_executed) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Session, rec.Request, rec.State, rec.Reason, rec.Planned, rec.Executed,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	for _, step := range steps {
		_, err := tx.Exec(
			`INSERT INTO step_results (run_id, output_ref, failed, content) VALUES (?, ?, ?, ?)`,
			runID, step.Ref, step.Failed, step.Content,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// CountRuns returns the number of recorded runs.
func (s *RunStore) CountRuns() (int, error) {
	var n int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// RecentRuns returns the newest runs first.
func (s *RunStore) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.DB.Query(
		`SELECT session, request, state, reason, steps_planned, steps_executed FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.Session, &rec.Request, &rec.State, &rec.Reason, &rec.Planned, &rec.Executed); err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

func (s *RunStore) Close() error {
	return s.DB.Close()
}
