package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mdsim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	strategy           TEXT NOT NULL,
	created_at         INTEGER NOT NULL, -- Unix µs
	action_duration_ms INTEGER NOT NULL,
	pnl                REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS run_positions (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	instrument TEXT NOT NULL,
	quantity   REAL NOT NULL,
	PRIMARY KEY (run_id, instrument)
);

CREATE TABLE IF NOT EXISTS run_fills (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	seq              INTEGER NOT NULL,
	timestamp        INTEGER NOT NULL, -- intent time, Unix µs
	instrument       TEXT NOT NULL,
	pnl_delta        REAL NOT NULL,
	instrument_delta REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run with its positions and fill history in one
// transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, strategy, created_at, action_duration_ms, pnl) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.CreatedAt.UnixMicro(), run.ActionDurationMS, run.PnL)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for instrument, quantity := range run.Positions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_positions (run_id, instrument, quantity) VALUES (?, ?, ?)`,
			run.ID, instrument, quantity)
		if err != nil {
			return fmt.Errorf("inserting position %s/%s: %w", run.ID, instrument, err)
		}
	}

	for _, fill := range run.Fills {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_fills (run_id, seq, timestamp, instrument, pnl_delta, instrument_delta)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, fill.Seq, fill.Timestamp, fill.Instrument, fill.PnLDelta, fill.InstrumentDelta)
		if err != nil {
			return fmt.Errorf("inserting fill %s/%d: %w", run.ID, fill.Seq, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a full run by ID, including fills (in sequence order) and
// positions. Returns sql.ErrNoRows when the run does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id, Positions: make(map[string]float64)}

	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT strategy, created_at, action_duration_ms, pnl FROM runs WHERE id = ?`, id).
		Scan(&run.Strategy, &createdAt, &run.ActionDurationMS, &run.PnL)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.UnixMicro(createdAt).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT instrument, quantity FROM run_positions WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var instrument string
		var quantity float64
		if err := rows.Scan(&instrument, &quantity); err != nil {
			return nil, err
		}
		run.Positions[instrument] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fillRows, err := s.db.QueryContext(ctx,
		`SELECT seq, timestamp, instrument, pnl_delta, instrument_delta
		 FROM run_fills WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer fillRows.Close()
	for fillRows.Next() {
		var fill domain.FillRecord
		if err := fillRows.Scan(&fill.Seq, &fill.Timestamp, &fill.Instrument,
			&fill.PnLDelta, &fill.InstrumentDelta); err != nil {
			return nil, err
		}
		run.Fills = append(run.Fills, fill)
	}
	if err := fillRows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns returns summaries of all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.strategy, r.created_at, r.pnl,
		        (SELECT COUNT(*) FROM run_fills f WHERE f.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Strategy, &createdAt, &s.PnL, &s.FillCount); err != nil {
			return nil, err
		}
		s.CreatedAt = time.UnixMicro(createdAt).UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
