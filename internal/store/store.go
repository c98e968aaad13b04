// Package store persists reconciliation runs in sqlite: one row per run
// (subject, date) and one row per session, observed or inferred-missing.
// The reconciliation core itself stays pure; the store records its inputs
// and outputs so the monitor server and later analysis can read them back
// without rescanning the filesystem.
package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
	"github.com/prevoccupai/acquisition.report/internal/timeutil"
)

type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// baseline schema; migrations in the migrations directory evolve it.
const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id         TEXT PRIMARY KEY,
		subject        TEXT NOT NULL,
		date           TEXT NOT NULL,
		created_at     TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sessions (
		run_id         TEXT NOT NULL,
		device         TEXT NOT NULL,
		start_seconds  INTEGER NOT NULL,
		length         INTEGER NOT NULL,
		missing        INTEGER NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_subject_date ON runs(subject, date);
	CREATE INDEX IF NOT EXISTS idx_sessions_run ON sessions(run_id);
`

// NewStore opens (and if needed initialises) the sqlite database at path.
// A nil clock falls back to the real one.
func NewStore(path string, clock timeutil.Clock) (*Store, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}
	return &Store{DB: db, clock: clock}, nil
}

// Run is one persisted reconciliation run.
type Run struct {
	ID      string
	Subject string
	Date    string
}

// Session is one persisted session row.
type Session struct {
	Device  schedule.Device
	Start   schedule.TimeOfDay
	Length  int
	Missing bool
}

// SaveRun records one subject-day reconciliation: the observed records and
// the reconciled missing records, under a fresh run id.
func (s *Store) SaveRun(subject, date string, observed, missing map[schedule.Device]schedule.Record) (string, error) {
	runID := uuid.NewString()

	tx, err := s.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, subject, date, created_at) VALUES (?, ?, ?, ?)`,
		runID, subject, date, s.clock.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	if err := insertSessions(tx, runID, observed, false); err != nil {
		return "", err
	}
	if err := insertSessions(tx, runID, missing, true); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

func insertSessions(tx *sql.Tx, runID string, records map[schedule.Device]schedule.Record, missing bool) error {
	// Stable insert order keeps reads deterministic.
	devices := make([]string, 0, len(records))
	for device := range records {
		devices = append(devices, string(device))
	}
	sort.Strings(devices)

	for _, device := range devices {
		rec := records[schedule.Device(device)]
		for i, start := range rec.StartTimes {
			if _, err := tx.Exec(
				`INSERT INTO sessions (run_id, device, start_seconds, length, missing) VALUES (?, ?, ?, ?, ?)`,
				runID, device, start.Seconds(), rec.Lengths[i], missing,
			); err != nil {
				return fmt.Errorf("inserting session for %s: %w", device, err)
			}
		}
	}
	return nil
}

// LatestRun returns the most recent run for a subject-day, or sql.ErrNoRows
// when none exists.
func (s *Store) LatestRun(subject, date string) (Run, error) {
	var run Run
	err := s.QueryRow(
		`SELECT run_id, subject, date FROM runs WHERE subject = ? AND date = ? ORDER BY created_at DESC, run_id DESC LIMIT 1`,
		subject, date,
	).Scan(&run.ID, &run.Subject, &run.Date)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// Sessions returns a run's session rows ordered by device then start time.
func (s *Store) Sessions(runID string) ([]Session, error) {
	rows, err := s.Query(
		`SELECT device, start_seconds, length, missing FROM sessions WHERE run_id = ? ORDER BY device, start_seconds`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var device string
		var start int
		if err := rows.Scan(&device, &start, &sess.Length, &sess.Missing); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Device = schedule.Device(device)
		sess.Start = schedule.TimeOfDay(start)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
