// Package evaluation scores answers by reconciling a deterministic rule checker
// with the external narrative scorer.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

const tracerName = "github.com/spigell/interview-coach/internal/evaluation"

// Config bounds the narrative scorer and sets the neutral fallback.
type Config struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max-retries"`
	RetryBackoff      time.Duration `mapstructure:"retry-backoff"`
	NeutralScore      float64       `mapstructure:"neutral-score"`
	MaxRationaleWords int           `mapstructure:"max-rationale-words"`
}

// DefaultConfig returns a 12s timeout, one retry and a neutral score of 2.5.
func DefaultConfig() Config {
	return Config{
		Timeout:           12 * time.Second,
		MaxRetries:        1,
		RetryBackoff:      250 * time.Millisecond,
		NeutralScore:      2.5,
		MaxRationaleWords: ai.DefaultMaxRationaleWords,
	}
}

// Validate rejects configurations that could hang a session or leave the score range.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("evaluation timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("evaluation max-retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("evaluation retry-backoff must not be negative, got %s", c.RetryBackoff)
	}
	if c.NeutralScore < interview.MinScore || c.NeutralScore > interview.MaxScore {
		return fmt.Errorf("evaluation neutral-score %.2f outside [0, 5]", c.NeutralScore)
	}
	return nil
}

// Composite is the evaluator used by the session controller.
type Composite struct {
	task    *narrativeTask
	neutral float64
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewComposite builds an evaluator. A nil scorer yields rule-only evaluation.
func NewComposite(scorer ai.Scorer, cfg Config, log *zap.Logger) *Composite {
	log = logger.WithFields(log)
	c := &Composite{
		neutral: cfg.NeutralScore,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if scorer != nil {
		c.task = &narrativeTask{
			scorer:     scorer,
			timeout:    cfg.Timeout,
			maxRetries: cfg.MaxRetries,
			backoff:    cfg.RetryBackoff,
			logger:     log,
		}
	}
	return c
}

// Evaluate scores answer on axes. The only error it returns is the cancellation
// of ctx; scorer failures degrade the result instead.
func (c *Composite) Evaluate(ctx context.Context, q interview.Question, answer string, axes []interview.Axis) (interview.RubricResult, error) {
	ctx, span := c.tracer.Start(ctx, "evaluation.Evaluate",
		trace.WithAttributes(
			attribute.String("question.id", q.ID),
			attribute.String("question.type", string(q.Type)),
			attribute.String("phase", string(q.Phase)),
		),
	)
	defer span.End()

	rule := CheckFormula(q, answer)

	var outcome *Outcome
	if len(axes) > 0 && c.task != nil {
		res, err := c.task.run(ctx, ai.NarrativeRequest{
			QuestionText: q.Prompt,
			Context:      q.Context,
			AnswerText:   answer,
			Axes:         axes,
			Difficulty:   q.Difficulty,
			Phase:        q.Phase,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "evaluation cancelled")
			return interview.RubricResult{}, fmt.Errorf("evaluate %s: %w", q.ID, err)
		}
		outcome = &res
		span.SetAttributes(attribute.Int("narrative.attempts", res.Attempts))
	}

	result := Reconcile(axes, rule, outcome, c.neutral)
	if outcome != nil {
		result.Attempts = outcome.Calls
	}
	span.SetAttributes(
		attribute.String("provenance", string(result.Provenance)),
		attribute.Bool("rule.verified", result.Verified),
	)

	fields := append(logger.QuestionFields("", string(q.Phase), q.ID),
		zap.String(logger.FieldProvenance, string(result.Provenance)))
	if result.Provenance == interview.ProvenanceDegraded {
		span.AddEvent("degraded", trace.WithAttributes(attribute.String("reason", result.DegradeReason)))
		c.logger.Warn("narrative scoring degraded", append(fields, zap.String("reason", result.DegradeReason))...)
	} else {
		c.logger.Debug("answer evaluated", fields...)
	}
	return result, nil
}

// Reconcile applies the override table. outcome is nil when no narrative scorer
// ran (none configured, or no axes to score).
//
//	axes empty                       -> rule-only, no scores
//	no scorer                        -> rule-only: verified correctness, neutral elsewhere
//	narrative ok, rule verified      -> narrative scores, correctness from the rule
//	narrative ok, rule not verified  -> narrative scores as-is
//	narrative degraded               -> verified correctness, neutral elsewhere
func Reconcile(axes []interview.Axis, rule RuleVerdict, outcome *Outcome, neutral float64) interview.RubricResult {
	neutral = interview.Clamp(neutral)
	result := interview.RubricResult{Scores: interview.Scores{}, Verified: rule.Verified}

	if len(axes) == 0 {
		result.Provenance = interview.ProvenanceRuleOnly
		result.Rationale = "not scored"
		return result
	}

	switch {
	case outcome == nil:
		result.Provenance = interview.ProvenanceRuleOnly
		fillFallback(result.Scores, axes, rule, neutral)
		result.Rationale = ruleRationale(rule)
	case outcome.OK():
		result.Provenance = interview.ProvenanceRuleNarrative
		for _, axis := range axes {
			result.Scores[axis] = interview.Clamp(outcome.Result.Scores[axis])
		}
		if rule.Verified {
			if _, scored := result.Scores[interview.AxisCorrectness]; scored {
				result.Scores[interview.AxisCorrectness] = rule.Correctness
			}
		}
		result.Rationale = joinRationale(ruleRationale(rule), outcome.Result.Rationale)
	default:
		result.Provenance = interview.ProvenanceDegraded
		result.DegradeReason = outcome.Reason
		fillFallback(result.Scores, axes, rule, neutral)
		result.Rationale = joinRationale(ruleRationale(rule), "narrative scoring unavailable")
	}
	return result
}

func fillFallback(scores interview.Scores, axes []interview.Axis, rule RuleVerdict, neutral float64) {
	for _, axis := range axes {
		if axis == interview.AxisCorrectness && rule.Verified {
			scores[axis] = rule.Correctness
			continue
		}
		scores[axis] = neutral
	}
}

func ruleRationale(rule RuleVerdict) string {
	if !rule.Applicable {
		return ""
	}
	if !rule.Verified {
		return "formula check inconclusive: " + rule.Reason
	}
	return "formula check: " + rule.Reason
}

func joinRationale(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ". ")
}
