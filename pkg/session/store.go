package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

const schema = `
CREATE TABLE IF NOT EXISTS trials (
	id TEXT PRIMARY KEY,
	start_ms INTEGER NOT NULL,
	end_ms INTEGER NOT NULL,
	lambda REAL NOT NULL,
	orientation TEXT NOT NULL,
	samples INTEGER NOT NULL,
	mean_abs_offset REAL NOT NULL,
	rms_offset REAL NOT NULL,
	max_abs_offset REAL NOT NULL,
	input_std_dev REAL NOT NULL,
	far_fraction REAL NOT NULL,
	boundary_hits INTEGER NOT NULL,
	longest_proper_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	trial_id TEXT NOT NULL REFERENCES trials(id) ON DELETE CASCADE,
	time_ms INTEGER NOT NULL,
	lambda REAL NOT NULL,
	offset REAL NOT NULL,
	input REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_trial ON samples(trial_id, time_ms);
`

// Store persists trials in SQLite.
type Store struct {
	*sql.DB
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &Store{db}, nil
}

// SaveTrial writes the trial, its samples and its summary in one transaction.
func (s *Store) SaveTrial(ctx context.Context, t Trial, sum Summary) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO trials (
		id, start_ms, end_ms, lambda, orientation, samples,
		mean_abs_offset, rms_offset, max_abs_offset, input_std_dev,
		far_fraction, boundary_hits, longest_proper_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Info.Start.UnixMilli(), t.Info.End.UnixMilli(), t.Info.Lambda, string(t.Info.Orientation),
		sum.Samples, sum.MeanAbsOffset, sum.RMSOffset, sum.MaxAbsOffset, sum.InputStdDev,
		sum.FarFraction, sum.BoundaryHits, sum.LongestProper.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE trial_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (trial_id, time_ms, lambda, offset, input) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()
	for _, r := range t.Records {
		if _, err := stmt.ExecContext(ctx, t.ID, r.Time.UnixMilli(), r.Lambda, r.Offset, r.Input); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Summaries returns the most recent trial summaries, newest first.
func (s *Store) Summaries(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.QueryContext(ctx, `SELECT
		id, start_ms, end_ms, lambda, samples, mean_abs_offset, rms_offset,
		max_abs_offset, input_std_dev, far_fraction, boundary_hits, longest_proper_ms
		FROM trials ORDER BY start_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum             Summary
			startMs, endMs  int64
			longestProperMs int64
		)
		if err := rows.Scan(&sum.TrialID, &startMs, &endMs, &sum.Lambda, &sum.Samples,
			&sum.MeanAbsOffset, &sum.RMSOffset, &sum.MaxAbsOffset, &sum.InputStdDev,
			&sum.FarFraction, &sum.BoundaryHits, &longestProperMs); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		sum.Start = time.UnixMilli(startMs)
		sum.Duration = time.Duration(endMs-startMs) * time.Millisecond
		sum.LongestProper = time.Duration(longestProperMs) * time.Millisecond
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Samples returns the data log of one trial in time order.
func (s *Store) Samples(ctx context.Context, trialID string) ([]tracking.Record, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT time_ms, lambda, offset, input FROM samples WHERE trial_id = ? ORDER BY time_ms, rowid`, trialID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []tracking.Record
	for rows.Next() {
		var (
			r  tracking.Record
			ms int64
		)
		if err := rows.Scan(&ms, &r.Lambda, &r.Offset, &r.Input); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		r.Time = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}
