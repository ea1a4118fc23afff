// Package history keeps a SQLite ledger of extraction runs and per-record outcomes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_captions/internal/engine/extract"
)

// Run is one recorded extraction run.
type Run struct {
	ID          string          `json:"id"`
	Store       string          `json:"store"`
	StartedAt   string          `json:"started_at"`
	FinishedAt  string          `json:"finished_at"`
	Interrupted bool            `json:"interrupted"`
	Summary     extract.Summary `json:"summary"`
}

// Outcome is one record's result within a run.
type Outcome struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Words    int    `json:"words,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Ledger is the SQLite-backed run history.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		store        TEXT NOT NULL,
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL,
		interrupted  INTEGER NOT NULL DEFAULT 0,
		total        INTEGER NOT NULL,
		skipped      INTEGER NOT NULL,
		succeeded    INTEGER NOT NULL,
		no_subtitles INTEGER NOT NULL,
		failed       INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS outcomes (
		run_id   TEXT NOT NULL REFERENCES runs(id),
		idx      INTEGER NOT NULL,
		title    TEXT,
		url      TEXT,
		status   TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		words    INTEGER NOT NULL DEFAULT 0,
		reason   TEXT,
		PRIMARY KEY (run_id, idx)
	)`)
	return err
}

// Close closes the database.
func (l *Ledger) Close() error { return l.db.Close() }

// RecordRun stores a finished run. Skipped records are not written as outcomes.
func (l *Ledger) RecordRun(ctx context.Context, r extract.Report) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id := uuid.NewString()
	s := r.Summary
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, store, started_at, finished_at, interrupted, total, skipped, succeeded, no_subtitles, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.StorePath, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Interrupted,
		s.Total, s.Skipped, s.Succeeded, s.NoSubtitles, s.Failed,
	); err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for _, o := range r.Outcomes {
		if o.Skipped {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, idx, title, url, status, attempts, words, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, o.Index, o.Title, o.URL, o.Status.String(), o.Attempts, o.Words, o.Reason,
		); err != nil {
			return fmt.Errorf("history: insert outcome: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns the latest runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, store, started_at, finished_at, interrupted, total, skipped, succeeded, no_subtitles, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Store, &r.StartedAt, &r.FinishedAt, &r.Interrupted,
			&r.Summary.Total, &r.Summary.Skipped, &r.Summary.Succeeded,
			&r.Summary.NoSubtitles, &r.Summary.Failed); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the per-record outcomes of one run in store order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT idx, title, url, status, attempts, words, reason
		 FROM outcomes WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o      Outcome
			reason sql.NullString
		)
		if err := rows.Scan(&o.Index, &o.Title, &o.URL, &o.Status, &o.Attempts, &o.Words, &reason); err != nil {
			return nil, fmt.Errorf("history: scan outcome: %w", err)
		}
		o.Reason = reason.String
		out = append(out, o)
	}
	return out, rows.Err()
}

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}
