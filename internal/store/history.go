package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/phonevalidator/internal/report"
)

// History is a SQLite-backed record of validation verdicts
type History struct {
	db *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// Writers are serialized by SQLite anyway
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS validations (
			phone TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			transcript TEXT NOT NULL DEFAULT '',
			matched_phrase TEXT NOT NULL DEFAULT '',
			call_sid TEXT NOT NULL DEFAULT '',
			validated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_validations_status ON validations (status)`,
	}

	for _, query := range queries {
		if _, err := h.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create history table: %w", err)
		}
	}
	return nil
}

// Record stores a result, replacing any earlier entry for the same number.
// ERROR results never overwrite an existing verdict.
func (h *History) Record(ctx context.Context, r report.Result) error {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `INSERT INTO validations (phone, status, transcript, matched_phrase, call_sid, validated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			status = excluded.status,
			transcript = excluded.transcript,
			matched_phrase = excluded.matched_phrase,
			call_sid = excluded.call_sid,
			validated_at = excluded.validated_at
		WHERE excluded.status != 'ERROR' OR validations.status = 'ERROR'`

	_, err := h.db.ExecContext(ctx, query,
		r.Phone, string(r.Status), r.Transcript, r.MatchedPhrase, r.CallSID, ts.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", r.Phone, err)
	}
	return nil
}

// Lookup returns the stored result for a phone number
func (h *History) Lookup(ctx context.Context, phone string) (report.Result, bool, error) {
	var (
		r      report.Result
		status string
		millis int64
	)

	row := h.db.QueryRowContext(ctx,
		`SELECT phone, status, transcript, matched_phrase, call_sid, validated_at
		FROM validations WHERE phone = ?`, phone)
	err := row.Scan(&r.Phone, &status, &r.Transcript, &r.MatchedPhrase, &r.CallSID, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Result{}, false, nil
	}
	if err != nil {
		return report.Result{}, false, fmt.Errorf("failed to look up %s: %w", phone, err)
	}

	r.Status = report.Status(status)
	r.Timestamp = time.UnixMilli(millis)
	return r, true, nil
}

// Validated reports whether the number already has a VALID or INVALID verdict
func (h *History) Validated(ctx context.Context, phone string) (bool, error) {
	r, ok, err := h.Lookup(ctx, phone)
	if err != nil || !ok {
		return false, err
	}
	return r.Terminal(), nil
}

// Counts returns the number of stored results per status
func (h *History) Counts(ctx context.Context) (map[report.Status]int, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM validations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}
	defer rows.Close()

	counts := make(map[report.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to count results: %w", err)
		}
		counts[report.Status(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (h *History) Close() error {
	return h.db.Close()
}
