package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// timeLayout sorts lexically in time order and is understood by the SQLite
// date functions.
const timeLayout = "2006-01-02 15:04:05.000"

// ExportRun records metadata for a single schedule export.
type ExportRun struct {
	RunID        string
	CampID       string
	UserID       string
	Status       string
	Meals        int
	Recipes      int
	StoreCalls   int64
	Latency      time.Duration
	Error        string
	SnapshotPath string
	StartedAt    time.Time
}

// Store handles persistence of export runs to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a run to the database.
func (s *Store) Record(ctx context.Context, r ExportRun) error {
	ts := r.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_runs
			(run_id, camp_id, user_id, status, meals, recipes, store_calls, latency_ms, error, snapshot_path, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.CampID, r.UserID, r.Status, r.Meals, r.Recipes, r.StoreCalls,
		r.Latency.Milliseconds(), r.Error, r.SnapshotPath, ts.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record export run %s: %w", r.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]ExportRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, camp_id, user_id, status, meals, recipes, store_calls, latency_ms, error, snapshot_path, started_at
		FROM export_runs
		ORDER BY started_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []ExportRun
	for rows.Next() {
		var (
			r         ExportRun
			latencyMS int64
			startedAt string
		)
		err := rows.Scan(&r.RunID, &r.CampID, &r.UserID, &r.Status, &r.Meals, &r.Recipes,
			&r.StoreCalls, &latencyMS, &r.Error, &r.SnapshotPath, &startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export run: %w", err)
		}
		r.Latency = time.Duration(latencyMS) * time.Millisecond
		r.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time of run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export runs: %w", err)
	}
	return runs, nil
}

// DailyExports represents run totals for a single day.
type DailyExports struct {
	Date      string
	Succeeded int
	Failed    int
	AvgMS     int64
}

// GetDailyExports retrieves run totals for the last N days.
func (s *Store) GetDailyExports(ctx context.Context, days int) ([]DailyExports, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(started_at) AS day,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			CAST(AVG(latency_ms) AS INTEGER)
		FROM export_runs
		WHERE started_at >= ?
		GROUP BY day
		ORDER BY day`, StatusSucceeded, StatusFailed, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily exports: %w", err)
	}
	defer rows.Close()

	var results []DailyExports
	for rows.Next() {
		var d DailyExports
		if err := rows.Scan(&d.Date, &d.Succeeded, &d.Failed, &d.AvgMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily exports: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily exports: %w", err)
	}
	return results, nil
}

// Cleanup removes runs older than the specified number of days and returns
// how many were removed.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM export_runs WHERE started_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up export runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed export runs: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
