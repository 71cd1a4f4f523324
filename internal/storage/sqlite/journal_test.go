package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/interview-coach/internal/interview"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func record(seq int, id string, correctness float64) interview.ResponseRecord {
	return interview.ResponseRecord{
		Sequence:   seq,
		QuestionID: id,
		Phase:      interview.PhaseAdaptiveQnA,
		Difficulty: interview.Intermediate,
		Answer:     "=SUM(A1:A10)",
		Timestamp:  time.Date(2025, 3, 1, 10, seq, 0, 0, time.UTC),
		Scores:     interview.Scores{interview.AxisCorrectness: correctness},
		Provenance: interview.ProvenanceRuleNarrative,
		Flags:      []string{interview.FlagFormula},
	}
}

func snapshot(id string, records ...interview.ResponseRecord) *interview.SessionState {
	return &interview.SessionState{
		ID:        id,
		Phase:     interview.PhaseAdaptiveQnA,
		Responses: records,
		Started:   true,
		UpdatedAt: time.Date(2025, 3, 1, 10, len(records), 0, 0, time.UTC),
	}
}

func TestSaveAppendsIdempotently(t *testing.T) {
	t.Parallel()

	j := tempJournal(t)
	ctx := context.Background()

	q2, q1 := record(2, "q2", 3), record(1, "q1", 5)
	if err := j.Save(ctx, snapshot("s1", q2), q2); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := j.Save(ctx, snapshot("s1", q2, q1), q1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A retried save with different content must not replace the first record.
	if err := j.Save(ctx, snapshot("s1", q2, q1), record(1, "q1", 0)); err != nil {
		t.Fatalf("Save retry: %v", err)
	}
	other := record(1, "q1", 1)
	if err := j.Save(ctx, snapshot("s2", other), other); err != nil {
		t.Fatalf("Save other session: %v", err)
	}

	got, err := j.Records(ctx, "s1")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].QuestionID != "q1" || got[1].QuestionID != "q2" {
		t.Fatalf("records not in sequence order: %s, %s", got[0].QuestionID, got[1].QuestionID)
	}
	if got[0].Scores[interview.AxisCorrectness] != 5 {
		t.Fatalf("first record was overwritten: %v", got[0].Scores)
	}
	if !got[0].HasFlag(interview.FlagFormula) {
		t.Fatalf("flags lost in round trip")
	}
}

func TestSaveIsAtomic(t *testing.T) {
	t.Parallel()

	j := tempJournal(t)
	ctx := context.Background()

	good := record(1, "q1", 4)
	bad := record(2, "q2", 4)
	bad.Scores[interview.AxisExplanation] = math.NaN()

	if err := j.Save(ctx, snapshot("s1", good, bad), good, bad); err == nil {
		t.Fatalf("expected an error for an unencodable record")
	}

	got, err := j.Records(ctx, "s1")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("records of a failed save were kept: %d", len(got))
	}
	if _, err := j.Snapshot(ctx, "s1"); !errors.Is(err, interview.ErrSessionNotFound) {
		t.Fatalf("snapshot of a failed save was kept: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	j := tempJournal(t)
	ctx := context.Background()

	_, err := j.Snapshot(ctx, "missing")
	if !errors.Is(err, interview.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	state := &interview.SessionState{
		ID:          "s1",
		Phase:       interview.PhaseScenario,
		QIndex:      0,
		Difficulty:  interview.Advanced,
		Responses:   []interview.ResponseRecord{record(1, "q1", 4)},
		PhaseTotals: map[interview.Phase]int{interview.PhaseScenario: 1},
		Pending:     "scenario_sales_analysis",
		Started:     true,
		UpdatedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := j.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	state.Phase = interview.PhaseReflection
	state.UpdatedAt = state.UpdatedAt.Add(time.Minute)
	if err := j.Save(ctx, state); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := j.Snapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Phase != interview.PhaseReflection {
		t.Fatalf("expected latest snapshot, got phase %s", got.Phase)
	}
	if got.Difficulty != interview.Advanced || got.Pending != "scenario_sales_analysis" || len(got.Responses) != 1 {
		t.Fatalf("snapshot fields lost: %+v", got)
	}

	ids, err := j.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("unexpected sessions: %v", ids)
	}
}
