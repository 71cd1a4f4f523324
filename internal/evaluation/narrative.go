package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/utils"
)

// Outcome is the typed result of the bounded narrative task: either a
// validated result or a degradation reason. It is never both.
type Outcome struct {
	Result   ai.NarrativeResult
	Degraded bool
	Reason   string
	Attempts int
	// Calls records each scorer call with its raw output.
	Calls []interview.NarrativeAttempt
}

// OK reports whether the scorer produced a validated result.
func (o Outcome) OK() bool { return !o.Degraded }

func okOutcome(result ai.NarrativeResult, calls []interview.NarrativeAttempt) Outcome {
	return Outcome{Result: result, Attempts: len(calls), Calls: calls}
}

func degradedOutcome(reason string, calls []interview.NarrativeAttempt) Outcome {
	return Outcome{Degraded: true, Reason: reason, Attempts: len(calls), Calls: calls}
}

type narrativeTask struct {
	scorer     ai.Scorer
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// run calls the scorer at most maxRetries+1 times, each bounded by timeout.
// Timeouts, schema failures and transport errors are retried and then degrade.
// Cancellation of ctx itself is returned as an error: the caller abandoned the
// evaluation and nothing may be committed.
func (t *narrativeTask) run(ctx context.Context, req ai.NarrativeRequest) (Outcome, error) {
	var (
		lastErr error
		calls   []interview.NarrativeAttempt
	)
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.WaitFor(ctx, utils.Backoff(attempt, t.backoff, 4*t.backoff)); err != nil {
				return Outcome{}, err
			}
		}

		result, err := t.attempt(ctx, req)
		if err == nil {
			calls = append(calls, interview.NarrativeAttempt{Attempt: attempt + 1, Raw: result.Raw})
			return okOutcome(result, calls), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}

		lastErr = err
		calls = append(calls, interview.NarrativeAttempt{
			Attempt: attempt + 1,
			Raw:     ai.RawResponse(err),
			Error:   err.Error(),
		})
		t.logger.Debug("narrative scoring attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", t.maxRetries+1),
			zap.Error(err),
		)
	}

	return degradedOutcome(lastErr.Error(), calls), nil
}

func (t *narrativeTask) attempt(ctx context.Context, req ai.NarrativeRequest) (ai.NarrativeResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result, err := t.scorer.Score(attemptCtx, req)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return ai.NarrativeResult{}, fmt.Errorf("%w after %s", interview.ErrEvaluationTimeout, t.timeout)
	}
	return ai.NarrativeResult{}, err
}
