package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/evaluation"
	"github.com/spigell/interview-coach/internal/interview"
)

func TestServiceRoutesBySessionID(t *testing.T) {
	t.Parallel()

	svc, err := NewService(DefaultConfig(), testDeps(t, fixedEvaluator{score: 3, correctness: 3}, nil))
	require.NoError(t, err)
	ctx := context.Background()

	prompt, err := svc.Start(ctx, "")
	require.NoError(t, err)
	_, err = uuid.Parse(prompt.SessionID)
	assert.NoError(t, err, "generated ids are uuids")

	other, err := svc.Start(ctx, "candidate-2")
	require.NoError(t, err)
	assert.Equal(t, "candidate-2", other.SessionID)

	_, err = svc.Start(ctx, "candidate-2")
	assert.ErrorIs(t, err, interview.ErrAlreadyStarted)

	_, err = svc.Submit(ctx, prompt.SessionID, longAnswer)
	require.NoError(t, err)

	first, err := svc.State(ctx, prompt.SessionID)
	require.NoError(t, err)
	second, err := svc.State(ctx, "candidate-2")
	require.NoError(t, err)
	assert.Equal(t, interview.PhaseAdaptiveQnA, first.Phase)
	assert.Equal(t, interview.PhaseIntro, second.Phase, "sessions do not share state")

	_, err = svc.Submit(ctx, "missing", longAnswer)
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
	_, err = svc.Report(ctx, "candidate-2")
	assert.ErrorIs(t, err, interview.ErrReportNotReady)

	rep, err := svc.Abandon(ctx, "candidate-2")
	require.NoError(t, err)
	assert.True(t, rep.Abandoned)

	assert.Len(t, svc.Sessions(), 2)
}

func TestServiceRestoresFromJournal(t *testing.T) {
	t.Parallel()

	journal := newMemoryJournal()
	deps := testDeps(t, fixedEvaluator{score: 3, correctness: 3}, journal)
	ctx := context.Background()

	first, err := NewService(DefaultConfig(), deps)
	require.NoError(t, err)
	_, err = first.Start(ctx, "resume-me")
	require.NoError(t, err)
	turn, err := first.Submit(ctx, "resume-me", longAnswer)
	require.NoError(t, err)

	second, err := NewService(DefaultConfig(), deps)
	require.NoError(t, err)
	prompt, err := second.Current(ctx, "resume-me")
	require.NoError(t, err)
	assert.Equal(t, turn.Prompt.QuestionID, prompt.QuestionID)

	_, err = second.Start(ctx, "resume-me")
	assert.ErrorIs(t, err, interview.ErrAlreadyStarted)

	_, err = second.Submit(ctx, "resume-me", longAnswer)
	require.NoError(t, err)
	records, err := journal.Records(ctx, "resume-me")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestNewServiceRejectsOversizedPhases(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Questions.Scenario = 40
	_, err := NewService(cfg, testDeps(t, fixedEvaluator{}, nil))
	assert.ErrorIs(t, err, interview.ErrQuestionBankExhausted)

	cfg = DefaultConfig()
	cfg.MaxSkips = 0
	_, err = NewService(cfg, testDeps(t, fixedEvaluator{}, nil))
	assert.Error(t, err)
}

// runInterview answers every prompt of session id until the report arrives.
func runInterview(ctx context.Context, svc *Service, id string) (*interview.FeedbackReport, error) {
	if _, err := svc.Start(ctx, id); err != nil {
		return nil, err
	}
	for i := 0; i < 50; i++ {
		turn, err := svc.Submit(ctx, id, longAnswer)
		if err != nil {
			return nil, err
		}
		if turn.Done() {
			return turn.Report, nil
		}
	}
	return nil, fmt.Errorf("session %s did not finish", id)
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	journal := newMemoryJournal()
	eval := evaluation.NewComposite(nil, evaluation.DefaultConfig(), zap.NewNop())
	svc, err := NewService(DefaultConfig(), testDeps(t, eval, journal))
	require.NoError(t, err)
	ctx := context.Background()

	ids := []string{"c-1", "c-2", "c-3", "c-4", "c-5", "c-6"}
	reports := make([]*interview.FeedbackReport, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			rep, err := runInterview(ctx, svc, id)
			assert.NoError(t, err)
			reports[i] = rep
		}(i, id)
	}
	wg.Wait()

	for i, id := range ids {
		require.NotNil(t, reports[i], id)
		assert.Equal(t, id, reports[i].SessionID)
		assert.Equal(t, interview.CompletenessFull, reports[i].Completeness)
		assert.Equal(t, reports[0].OverallScore, reports[i].OverallScore, "same answers score the same")

		records, err := journal.Records(ctx, id)
		require.NoError(t, err)
		assert.Len(t, records, 11)
	}
}

func TestServiceEvictsClosedSessions(t *testing.T) {
	t.Parallel()

	journal := newMemoryJournal()
	svc, err := NewService(DefaultConfig(), testDeps(t, fixedEvaluator{score: 4, correctness: 4}, journal))
	require.NoError(t, err)
	ctx := context.Background()

	final, err := runInterview(ctx, svc, "done")
	require.NoError(t, err)
	_, err = svc.Start(ctx, "quit")
	require.NoError(t, err)
	_, err = svc.Start(ctx, "live")
	require.NoError(t, err)
	_, err = svc.Abandon(ctx, "quit")
	require.NoError(t, err)

	assert.Equal(t, []string{"live"}, svc.Sessions())
	assert.Equal(t, 1, svc.Live())

	rep, err := svc.Report(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, final, rep)
	_, err = svc.Submit(ctx, "quit", longAnswer)
	assert.ErrorIs(t, err, interview.ErrSessionClosed)
	_, err = svc.Start(ctx, "done")
	assert.ErrorIs(t, err, interview.ErrAlreadyStarted)
	assert.Equal(t, 1, svc.Live(), "reading a closed session does not bring it back")

	journaled, err := journal.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "live", "quit"}, journaled)
}

func TestServiceKeepsClosedSessionsWithoutJournal(t *testing.T) {
	t.Parallel()

	svc, err := NewService(DefaultConfig(), testDeps(t, fixedEvaluator{score: 4, correctness: 4}, nil))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Start(ctx, "quit")
	require.NoError(t, err)
	_, err = svc.Abandon(ctx, "quit")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Live())
	_, err = svc.Report(ctx, "quit")
	assert.NoError(t, err)
}
