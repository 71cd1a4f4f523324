package session

import (
	"context"

	"github.com/spigell/interview-coach/internal/interview"
)

// Journal persists sessions. Records are append-only: appending a record that
// already exists for the same session and question is a no-op.
type Journal interface {
	// Save appends records and replaces the snapshot of state in one
	// transaction. Either both are stored or neither is.
	Save(ctx context.Context, state *interview.SessionState, records ...interview.ResponseRecord) error
	// Snapshot returns the last saved state or an error wrapping interview.ErrSessionNotFound.
	Snapshot(ctx context.Context, sessionID string) (*interview.SessionState, error)
	// Records returns the appended records in sequence order.
	Records(ctx context.Context, sessionID string) ([]interview.ResponseRecord, error)
	// Sessions lists the journaled session ids.
	Sessions(ctx context.Context) ([]string, error)
	Close() error
}
