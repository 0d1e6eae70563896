package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store provides persistence for guarded calls and their attempts.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for call persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CallRecord is a guarded call as stored.
type CallRecord struct {
	CallID        string
	CreatedAt     string
	SpecName      string
	Engine        string
	Status        string
	Attempts      int
	RawOutput     string
	ValidatedJSON string
}

// AttemptRecord is one round of a guarded call.
type AttemptRecord struct {
	CallID       string
	AttemptIndex int
	StartedAt    string
	Prompt       string
	RawOutput    string
	IssuesJSON   string
}

// Event is a timeline entry for a call.
type Event struct {
	Seq      int
	TS       string
	Type     string
	Message  string
	DataJSON string
}

// CreateCall inserts the call record and a call_started event.
func (s *Store) CreateCall(ctx context.Context, callID, specName, engine string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create call: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO calls(call_id, created_at, spec_name, engine, status, attempts)
		VALUES(?, ?, ?, ?, ?, 0)`,
		callID, createdAt, specName, engine, "running"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert call: %w", err)
	}
	if err := s.insertEvent(ctx, tx, callID, "call_started", "call started", ""); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create call: %w", err)
	}
	return nil
}

// RecordAttempt inserts one attempt and bumps the call's attempt count.
func (s *Store) RecordAttempt(ctx context.Context, attempt AttemptRecord, events []Event) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin record attempt: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO attempts(call_id, attempt_index, started_at, prompt, raw_output, issues_json)
		VALUES(?, ?, ?, ?, ?, ?)`,
		attempt.CallID, attempt.AttemptIndex, attempt.StartedAt, attempt.Prompt,
		nullableString(attempt.RawOutput), nullableString(attempt.IssuesJSON)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert attempt: %w", err)
	}
	for _, ev := range events {
		if err := s.insertEvent(ctx, tx, attempt.CallID, ev.Type, ev.Message, ev.DataJSON); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE calls SET attempts=attempts+1 WHERE call_id=?`,
		attempt.CallID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update call attempts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record attempt: %w", err)
	}
	return nil
}

// FinishCall stores the final status and outputs of the call.
func (s *Store) FinishCall(ctx context.Context, callID, status, rawOutput, validatedJSON string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish call: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE calls SET status=?, raw_output=?, validated_json=? WHERE call_id=?`,
		status, nullableString(rawOutput), nullableString(validatedJSON), callID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update call: %w", err)
	}
	if err := s.insertEvent(ctx, tx, callID, "call_finished", "call finished: "+status, ""); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish call: %w", err)
	}
	return nil
}

func (s *Store) insertEvent(ctx context.Context, tx *sql.Tx, callID, typ, message, dataJSON string) error {
	seq, err := s.nextSeq(ctx, tx, callID)
	if err != nil {
		return err
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(call_id, seq, ts, type, message, data_json) VALUES(?, ?, ?, ?, ?, ?)`,
		callID, seq, ts, typ, message, nullableString(dataJSON)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) nextSeq(ctx context.Context, tx *sql.Tx, callID string) (int, error) {
	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE call_id=?`, callID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("read event seq: %w", err)
	}
	return seq + 1, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// ListCalls returns the most recent calls, newest first.
func (s *Store) ListCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT call_id, created_at, spec_name, engine, status, attempts,
		COALESCE(raw_output, ''), COALESCE(validated_json, '')
		FROM calls ORDER BY created_at DESC, call_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var calls []CallRecord
	for rows.Next() {
		var c CallRecord
		if err := rows.Scan(&c.CallID, &c.CreatedAt, &c.SpecName, &c.Engine, &c.Status,
			&c.Attempts, &c.RawOutput, &c.ValidatedJSON); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return calls, nil
}

// GetCall returns one call, or sql.ErrNoRows.
func (s *Store) GetCall(ctx context.Context, callID string) (CallRecord, error) {
	var c CallRecord
	row := s.db.QueryRowContext(ctx, `SELECT call_id, created_at, spec_name, engine, status, attempts,
		COALESCE(raw_output, ''), COALESCE(validated_json, '')
		FROM calls WHERE call_id=?`, callID)
	if err := row.Scan(&c.CallID, &c.CreatedAt, &c.SpecName, &c.Engine, &c.Status,
		&c.Attempts, &c.RawOutput, &c.ValidatedJSON); err != nil {
		return CallRecord{}, fmt.Errorf("read call %s: %w", callID, err)
	}
	return c, nil
}

// ListAttempts returns the attempts of one call in order.
func (s *Store) ListAttempts(ctx context.Context, callID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT call_id, attempt_index, started_at, prompt,
		COALESCE(raw_output, ''), COALESCE(issues_json, '')
		FROM attempts WHERE call_id=? ORDER BY attempt_index`, callID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		if err := rows.Scan(&a.CallID, &a.AttemptIndex, &a.StartedAt, &a.Prompt,
			&a.RawOutput, &a.IssuesJSON); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// ListEvents returns the timeline of one call in sequence order.
func (s *Store) ListEvents(ctx context.Context, callID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, ts, type, message, COALESCE(data_json, '')
		FROM events WHERE call_id=? ORDER BY seq`, callID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Seq, &ev.TS, &ev.Type, &ev.Message, &ev.DataJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
