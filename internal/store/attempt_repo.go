package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) SaveAttempt(ctx context.Context, rec *AttemptRecord) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO attempts (attempt_id, test_id, title, backend, reason, score, max_score, correct, incorrect, unattempted, violations, duration_secs, remaining_secs, started_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(attempt_id) DO UPDATE SET
			test_id = excluded.test_id,
			title = excluded.title,
			backend = excluded.backend,
			reason = excluded.reason,
			score = excluded.score,
			max_score = excluded.max_score,
			correct = excluded.correct,
			incorrect = excluded.incorrect,
			unattempted = excluded.unattempted,
			violations = excluded.violations,
			duration_secs = excluded.duration_secs,
			remaining_secs = excluded.remaining_secs,
			started_at = excluded.started_at,
			submitted_at = excluded.submitted_at
		 RETURNING id`,
		rec.AttemptID,
		rec.TestID,
		rec.Title,
		rec.Backend,
		rec.Reason,
		rec.Score,
		rec.MaxScore,
		rec.Correct,
		rec.Incorrect,
		rec.Unattempted,
		rec.Violations,
		rec.DurationSecs,
		rec.RemainingSecs,
		formatTime(rec.StartedAt),
		formatTime(rec.SubmittedAt),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, attempt_id, test_id, title, backend, reason, score, max_score, correct, incorrect, unattempted, violations, duration_secs, remaining_secs, started_at, submitted_at`

func scanAttempt(row interface{ Scan(...any) error }) (AttemptRecord, error) {
	var rec AttemptRecord
	var started, submitted string
	err := row.Scan(
		&rec.ID,
		&rec.AttemptID,
		&rec.TestID,
		&rec.Title,
		&rec.Backend,
		&rec.Reason,
		&rec.Score,
		&rec.MaxScore,
		&rec.Correct,
		&rec.Incorrect,
		&rec.Unattempted,
		&rec.Violations,
		&rec.DurationSecs,
		&rec.RemainingSecs,
		&started,
		&submitted,
	)
	if err != nil {
		return AttemptRecord{}, err
	}
	if rec.StartedAt, err = parseTime(started); err != nil {
		return AttemptRecord{}, err
	}
	if rec.SubmittedAt, err = parseTime(submitted); err != nil {
		return AttemptRecord{}, err
	}
	return rec, nil
}

func (r *attemptRepo) GetAttempt(ctx context.Context, attemptID string) (*AttemptRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE attempt_id = ?`, attemptID)
	rec, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &rec, nil
}

func (r *attemptRepo) ListAttempts(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error) {
	var where []string
	var args []any
	if opts.TestID != "" {
		where = append(where, "test_id = ?")
		args = append(args, opts.TestID)
	}
	if !opts.From.IsZero() {
		where = append(where, "submitted_at >= ?")
		args = append(args, formatTime(opts.From))
	}
	if !opts.To.IsZero() {
		where = append(where, "submitted_at <= ?")
		args = append(args, formatTime(opts.To))
	}

	query := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *attemptRepo) AppendEvent(ctx context.Context, ev AttemptEvent) (int64, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return 0, fmt.Errorf("marshal event data: %w", err)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM attempt_events`,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attempt_events (sequence, attempt_id, kind, timestamp, data) VALUES (?, ?, ?, ?, ?)`,
		seq, ev.AttemptID, string(ev.Kind), formatTime(ev.Timestamp), string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return seq, nil
}

func (r *attemptRepo) Events(ctx context.Context, attemptID string) ([]AttemptEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, attempt_id, kind, timestamp, data FROM attempt_events WHERE attempt_id = ? ORDER BY sequence`,
		attemptID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []AttemptEvent
	for rows.Next() {
		var ev AttemptEvent
		var kind, ts, data string
		if err := rows.Scan(&ev.Sequence, &ev.AttemptID, &kind, &ts, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = EventKind(kind)
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *attemptRepo) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"attempt_events", "attempts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
