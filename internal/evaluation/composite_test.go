package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
)

var qnaAxes = []interview.Axis{
	interview.AxisCorrectness,
	interview.AxisExplanation,
	interview.AxisExcelSpecificity,
	interview.AxisDifficultyConsistency,
}

// scriptedScorer replays one step per call; a nil step blocks until the attempt times out.
type scriptedScorer struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) (ai.NarrativeResult, error)
	calls int
}

func (s *scriptedScorer) Score(ctx context.Context, _ ai.NarrativeRequest) (ai.NarrativeResult, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if idx >= len(s.steps) {
		return ai.NarrativeResult{}, errors.New("unexpected call")
	}
	return s.steps[idx](ctx)
}

func (s *scriptedScorer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func respond(scores interview.Scores) func(context.Context) (ai.NarrativeResult, error) {
	return func(context.Context) (ai.NarrativeResult, error) {
		return ai.NarrativeResult{Scores: scores, Rationale: "clear and specific"}, nil
	}
}

func malformed() func(context.Context) (ai.NarrativeResult, error) {
	return func(context.Context) (ai.NarrativeResult, error) {
		_, err := ai.ParseNarrative("not json", qnaAxes, 40)
		return ai.NarrativeResult{}, err
	}
}

func hang() func(context.Context) (ai.NarrativeResult, error) {
	return func(ctx context.Context) (ai.NarrativeResult, error) {
		<-ctx.Done()
		return ai.NarrativeResult{}, ctx.Err()
	}
}

func highScores() interview.Scores {
	return interview.Scores{
		interview.AxisCorrectness:           5,
		interview.AxisExplanation:           5,
		interview.AxisExcelSpecificity:      4.5,
		interview.AxisDifficultyConsistency: 4,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 30 * time.Millisecond
	cfg.RetryBackoff = 0
	return cfg
}

func sumQuestion() interview.Question {
	return interview.Question{
		ID:       "beginner_sum",
		Prompt:   "How would you calculate the total of values in cells A1 through A10?",
		Type:     interview.TypeFormula,
		Phase:    interview.PhaseAdaptiveQnA,
		Expected: &interview.ExpectedAnswer{Formula: "=SUM(A1:A10)", AcceptedFunctions: []string{"SUM"}},
	}
}

func TestVerifiedCorrectAnswer(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){respond(interview.Scores{
		interview.AxisCorrectness:           2,
		interview.AxisExplanation:           3,
		interview.AxisExcelSpecificity:      3,
		interview.AxisDifficultyConsistency: 3,
	})}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, 5.0, result.Scores[interview.AxisCorrectness])
	assert.Equal(t, 3.0, result.Scores[interview.AxisExplanation])
	assert.Equal(t, interview.ProvenanceRuleNarrative, result.Provenance)
}

func TestWrongFunctionIsCappedRegardlessOfNarrative(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){respond(highScores())}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=AVERAGE(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.LessOrEqual(t, result.Scores[interview.AxisCorrectness], 1.0)
	assert.Equal(t, 5.0, result.Scores[interview.AxisExplanation])
}

func TestOverrideLaw(t *testing.T) {
	t.Parallel()

	refuted := RuleVerdict{Applicable: true, Verified: true, Correctness: 1}
	for narrative := 0.0; narrative <= 5; narrative += 0.5 {
		scores := highScores()
		scores[interview.AxisCorrectness] = narrative
		for _, outcome := range []*Outcome{
			nil,
			{Result: ai.NarrativeResult{Scores: scores}},
			{Degraded: true, Reason: "timeout"},
		} {
			got := Reconcile(qnaAxes, refuted, outcome, 2.5)
			assert.LessOrEqual(t, got.Scores[interview.AxisCorrectness], 1.0)
			assert.True(t, got.Scores.InRange())
		}
	}
}

func TestUnverifiedUsesNarrativeAsIs(t *testing.T) {
	t.Parallel()

	scores := highScores()
	scores[interview.AxisCorrectness] = 3.5
	got := Reconcile(qnaAxes, RuleVerdict{Applicable: true}, &Outcome{Result: ai.NarrativeResult{Scores: scores, Rationale: "ok"}}, 2.5)
	assert.Equal(t, scores, got.Scores)
	assert.Equal(t, interview.ProvenanceRuleNarrative, got.Provenance)
	assert.False(t, got.Verified)
}

func TestDegradedNeverFabricatesNarrativeScores(t *testing.T) {
	t.Parallel()

	inapplicable := Reconcile(qnaAxes, RuleVerdict{}, &Outcome{Degraded: true, Reason: "schema"}, 2.5)
	for _, axis := range qnaAxes {
		assert.Equal(t, 2.5, inapplicable.Scores[axis], axis)
	}
	assert.Equal(t, interview.ProvenanceDegraded, inapplicable.Provenance)
	assert.Equal(t, "schema", inapplicable.DegradeReason)

	verified := Reconcile(qnaAxes, RuleVerdict{Applicable: true, Verified: true, Correctness: 5}, &Outcome{Degraded: true}, 2.5)
	assert.Equal(t, 5.0, verified.Scores[interview.AxisCorrectness])
	assert.Equal(t, 2.5, verified.Scores[interview.AxisExplanation])
}

func TestNoAxesIsRuleOnly(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), interview.Question{ID: "intro", Phase: interview.PhaseIntro}, "I build reports", nil)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceRuleOnly, result.Provenance)
	assert.Empty(t, result.Scores)
	assert.Zero(t, scorer.Calls())
}

func TestNoScorerIsRuleOnly(t *testing.T) {
	t.Parallel()

	eval := NewComposite(nil, testConfig(), zap.NewNop())
	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceRuleOnly, result.Provenance)
	assert.Equal(t, 5.0, result.Scores[interview.AxisCorrectness])
	assert.Equal(t, 2.5, result.Scores[interview.AxisExplanation])
}

func TestMalformedOnceThenValidIsNotDegraded(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){malformed(), respond(highScores())}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	q := sumQuestion()
	q.Type = interview.TypeConceptual
	result, err := eval.Evaluate(context.Background(), q, "Select the range and press AutoSum", qnaAxes)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceRuleNarrative, result.Provenance)
	assert.Equal(t, 2, scorer.Calls())
	assert.Equal(t, 5.0, result.Scores[interview.AxisExplanation])
}

func TestScorerCallsAreKeptForAudit(t *testing.T) {
	t.Parallel()

	garbled := func(context.Context) (ai.NarrativeResult, error) {
		_, err := ai.ParseNarrative("Sure, a 5!", qnaAxes, 40)
		return ai.NarrativeResult{}, &ai.ResponseError{Raw: "Sure, a 5!", Err: err}
	}
	valid := func(context.Context) (ai.NarrativeResult, error) {
		return ai.NarrativeResult{Scores: highScores(), Rationale: "fine", Raw: `{"scores":{}}`}, nil
	}
	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){garbled, valid}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, 1, result.Attempts[0].Attempt)
	assert.Equal(t, "Sure, a 5!", result.Attempts[0].Raw)
	assert.Contains(t, result.Attempts[0].Error, interview.ErrEvaluationSchemaInvalid.Error())
	assert.Equal(t, interview.NarrativeAttempt{Attempt: 2, Raw: `{"scores":{}}`}, result.Attempts[1])
}

func TestDegradedResultKeepsFailedCalls(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){hang(), malformed()}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceDegraded, result.Provenance)
	require.Len(t, result.Attempts, 2)
	assert.Contains(t, result.Attempts[0].Error, interview.ErrEvaluationTimeout.Error())
	assert.Empty(t, result.Attempts[0].Raw)
	assert.Contains(t, result.Attempts[1].Error, interview.ErrEvaluationSchemaInvalid.Error())
}

func TestRuleOnlyHasNoScorerCalls(t *testing.T) {
	t.Parallel()

	eval := NewComposite(nil, testConfig(), zap.NewNop())
	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.Nil(t, result.Attempts)
}

func TestProseNamingOtherFunctionsDefersToNarrative(t *testing.T) {
	t.Parallel()

	scores := highScores()
	scores[interview.AxisCorrectness] = 4
	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){respond(scores)}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "I would not use AVERAGE() here, I would add them up", qnaAxes)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, 4.0, result.Scores[interview.AxisCorrectness])
}

func TestTimeoutTwiceDegrades(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){hang(), hang()}}
	eval := NewComposite(scorer, testConfig(), zap.New(core))

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceDegraded, result.Provenance)
	assert.Contains(t, result.DegradeReason, interview.ErrEvaluationTimeout.Error())
	assert.Equal(t, 2, scorer.Calls())
	assert.Equal(t, 5.0, result.Scores[interview.AxisCorrectness])
	assert.Equal(t, 1, observed.FilterMessage("narrative scoring degraded").Len())
}

func TestTransportErrorRetriedOnceThenDegrades(t *testing.T) {
	t.Parallel()

	fail := func(context.Context) (ai.NarrativeResult, error) {
		return ai.NarrativeResult{}, fmt.Errorf("generate content: %w", errors.New("503"))
	}
	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){fail, fail, fail}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	result, err := eval.Evaluate(context.Background(), sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.NoError(t, err)
	assert.Equal(t, interview.ProvenanceDegraded, result.Provenance)
	assert.Equal(t, 2, scorer.Calls())
}

func TestCallerCancellationIsNotDegraded(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	scorer := &scriptedScorer{steps: []func(context.Context) (ai.NarrativeResult, error){
		func(ctx context.Context) (ai.NarrativeResult, error) {
			cancel()
			<-ctx.Done()
			return ai.NarrativeResult{}, ctx.Err()
		},
	}}
	eval := NewComposite(scorer, testConfig(), zap.NewNop())

	_, err := eval.Evaluate(ctx, sumQuestion(), "=SUM(A1:A10)", qnaAxes)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, scorer.Calls())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.NeutralScore = 7
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxRetries = -1
	assert.Error(t, bad.Validate())
}
