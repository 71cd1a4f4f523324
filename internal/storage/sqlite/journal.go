// Package sqlite stores interview sessions in an append-only SQLite journal.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/interview-coach/internal/interview"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_records (
	session_id   TEXT    NOT NULL,
	question_id  TEXT    NOT NULL,
	sequence     INTEGER NOT NULL,
	phase        TEXT    NOT NULL,
	provenance   TEXT    NOT NULL,
	record_json  TEXT    NOT NULL,
	created_at   TEXT    NOT NULL,
	PRIMARY KEY (session_id, question_id)
);

CREATE INDEX IF NOT EXISTS response_records_sequence
	ON response_records (session_id, sequence);

CREATE TABLE IF NOT EXISTS session_snapshots (
	session_id   TEXT PRIMARY KEY,
	phase        TEXT NOT NULL,
	terminal     INTEGER NOT NULL,
	abandoned    INTEGER NOT NULL,
	state_json   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
`

// Journal implements the session journal on SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps appends serialized across sessions.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Save appends records and upserts the snapshot in one transaction. Appending
// a question that is already stored keeps the first record.
func (j *Journal) Save(ctx context.Context, state *interview.SessionState, records ...interview.ResponseRecord) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := appendRecord(ctx, tx, state.ID, rec); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_snapshots (session_id, phase, terminal, abandoned, state_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			phase = excluded.phase,
			terminal = excluded.terminal,
			abandoned = excluded.abandoned,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		state.ID, string(state.Phase), state.Terminal, state.Abandoned, string(data),
		state.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func appendRecord(ctx context.Context, tx *sql.Tx, sessionID string, rec interview.ResponseRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO response_records (session_id, question_id, sequence, phase, provenance, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, question_id) DO NOTHING`,
		sessionID, rec.QuestionID, rec.Sequence, string(rec.Phase), string(rec.Provenance), string(data),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.QuestionID, err)
	}
	return nil
}

// Snapshot returns the last saved state of the session.
func (j *Journal) Snapshot(ctx context.Context, sessionID string) (*interview.SessionState, error) {
	var data string
	err := j.db.QueryRowContext(ctx,
		`SELECT state_json FROM session_snapshots WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", sessionID, interview.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	var state interview.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// Records returns the appended records of the session in sequence order.
func (j *Journal) Records(ctx context.Context, sessionID string) ([]interview.ResponseRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT record_json FROM response_records WHERE session_id = ? ORDER BY sequence ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []interview.ResponseRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec interview.ResponseRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Sessions lists the stored session ids, most recently updated first.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT session_id FROM session_snapshots ORDER BY updated_at DESC, session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
