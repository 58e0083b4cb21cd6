package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Click outcomes
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
)

// Run is one scan loop run
type Run struct {
	ID              int64
	Mode            string
	Targets         []string
	StartedAt       time.Time
	StoppedAt       *time.Time
	StopReason      string
	ClicksAttempted int64
	ClicksSucceeded int64
	DurationSeconds *float64
}

// Finished reports whether the run has been closed
func (r *Run) Finished() bool {
	return r.StoppedAt != nil
}

// Click is one click attempt within a run
type Click struct {
	ID        int64
	RunID     int64
	X, Y      int
	Outcome   string
	Target    string
	Error     string
	ClickedAt time.Time
}

// targets are stored newline separated so commas inside text targets survive
func joinTargets(targets []string) string {
	return strings.Join(targets, "\n")
}

func splitTargets(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// StartRun inserts an open run and returns its id
func (db *DB) StartRun(mode string, targets []string, startedAt time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO runs (mode, targets, started_at)
		VALUES (?, ?, ?)
	`, mode, joinTargets(targets), startedAt.UTC())

	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	return result.LastInsertId()
}

// FinishRun closes a run with its final counters
func (db *DB) FinishRun(runID int64, reason string, attempted, succeeded int64, stoppedAt time.Time) error {
	result, err := db.conn.Exec(`
		UPDATE runs
		SET stopped_at = ?,
		    stop_reason = ?,
		    clicks_attempted = ?,
		    clicks_succeeded = ?,
		    duration_seconds = (julianday(?) - julianday(started_at)) * 86400.0
		WHERE id = ?
	`, stoppedAt.UTC(), reason, attempted, succeeded, stoppedAt.UTC().Format(sqliteTime), runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to finish run %d: %w", runID, ErrRunNotFound)
	}

	return nil
}

// sqliteTime is a layout julianday() accepts
const sqliteTime = "2006-01-02 15:04:05.000"

// RecordClick inserts a click attempt for an existing run
func (db *DB) RecordClick(c Click) (int64, error) {
	var errorMessage *string
	if c.Error != "" {
		errorMessage = &c.Error
	}

	result, err := db.conn.Exec(`
		INSERT INTO clicks (run_id, x, y, outcome, target, error_message, clicked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.RunID, c.X, c.Y, c.Outcome, c.Target, errorMessage, c.ClickedAt.UTC())

	if err != nil {
		return 0, fmt.Errorf("failed to record click: %w", err)
	}

	return result.LastInsertId()
}

const runColumns = `
	id,
	mode,
	targets,
	started_at,
	stopped_at,
	stop_reason,
	clicks_attempted,
	clicks_succeeded,
	duration_seconds
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var targets string
	var stoppedAt sql.NullTime
	var stopReason sql.NullString
	var duration sql.NullFloat64

	err := row.Scan(
		&run.ID,
		&run.Mode,
		&targets,
		&run.StartedAt,
		&stoppedAt,
		&stopReason,
		&run.ClicksAttempted,
		&run.ClicksSucceeded,
		&duration,
	)
	if err != nil {
		return nil, err
	}

	run.Targets = splitTargets(targets)
	if stoppedAt.Valid {
		run.StoppedAt = &stoppedAt.Time
	}
	run.StopReason = stopReason.String
	if duration.Valid {
		run.DurationSeconds = &duration.Float64
	}

	return &run, nil
}

// GetRun retrieves a run by id
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.conn.Query(`
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListClicks returns the clicks of a run in the order they happened
func (db *DB) ListClicks(runID int64) ([]*Click, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, x, y, outcome, target, error_message, clicked_at
		FROM clicks
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []*Click
	for rows.Next() {
		var c Click
		var errorMessage sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.X, &c.Y, &c.Outcome, &c.Target, &errorMessage, &c.ClickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		c.Error = errorMessage.String
		clicks = append(clicks, &c)
	}

	return clicks, rows.Err()
}

// OutcomeCounts tallies a run's clicks by outcome
func (db *DB) OutcomeCounts(runID int64) (map[string]int64, error) {
	rows, err := db.conn.Query(`
		SELECT outcome, COUNT(*)
		FROM clicks
		WHERE run_id = ?
		GROUP BY outcome
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan click count: %w", err)
		}
		counts[outcome] = n
	}

	return counts, rows.Err()
}
