// Package session drives interviews through their phases and keeps every live session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/difficulty"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/report"
	"github.com/spigell/interview-coach/internal/scoring"
)

// QuestionSource is the read-only question bank.
type QuestionSource interface {
	Question(id string) (interview.Question, bool)
	Next(phase interview.Phase, d interview.Difficulty, asked []string) (interview.Question, error)
}

// Evaluator scores one answer on the given axes. It only fails when ctx is done.
type Evaluator interface {
	Evaluate(ctx context.Context, q interview.Question, answer string, axes []interview.Axis) (interview.RubricResult, error)
}

// Screener flags answers before scoring.
type Screener interface {
	Screen(ctx context.Context, q interview.Question, text string) ([]string, error)
}

// Deps are the collaborators shared by every controller of a process.
type Deps struct {
	Bank      QuestionSource
	Evaluator Evaluator
	// Screener and Journal are optional.
	Screener Screener
	Journal  Journal
	Weights  scoring.Weights
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) validate() error {
	if d.Bank == nil {
		return errors.New("question bank is required")
	}
	if d.Evaluator == nil {
		return errors.New("evaluator is required")
	}
	return d.Weights.Validate()
}

// Controller is the state machine of one session. Operations are serialized;
// Abandon additionally cancels an evaluation that is still running.
type Controller struct {
	mu      sync.Mutex
	state   *interview.SessionState
	agg     *scoring.Aggregator
	reports *report.Generator
	start   interview.Difficulty
	cfg     Config
	deps    Deps
	logger  *zap.Logger

	inflightMu sync.Mutex
	inflight   context.CancelFunc
}

// NewController returns a controller for a session that has not started yet.
func NewController(id string, cfg Config, deps Deps) (*Controller, error) {
	state := &interview.SessionState{
		ID:          id,
		Phase:       interview.PhaseIntro,
		PhaseTotals: cfg.Questions.Map(),
		Retries:     map[string]int{},
	}
	return newController(state, cfg, deps)
}

// Restore rebuilds a controller from a saved state.
func Restore(state *interview.SessionState, cfg Config, deps Deps) (*Controller, error) {
	if state == nil {
		return nil, errors.New("restore session: nil state")
	}
	return newController(state.Clone(), cfg, deps)
}

func newController(state *interview.SessionState, cfg Config, deps Deps) (*Controller, error) {
	if strings.TrimSpace(state.ID) == "" {
		return nil, errors.New("session id is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate interview config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("validate session deps: %w", err)
	}
	start, _ := cfg.StartDifficulty()
	if deps.Now == nil {
		deps.Now = time.Now
	}

	agg, err := scoring.FromRecords(deps.Weights, state.Responses)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", state.ID, err)
	}
	if state.Retries == nil {
		state.Retries = map[string]int{}
	}
	if state.PhaseTotals == nil {
		state.PhaseTotals = cfg.Questions.Map()
	}

	return &Controller{
		state:   state,
		agg:     agg,
		reports: report.NewGenerator(deps.Weights),
		start:   start,
		cfg:     cfg,
		deps:    deps,
		logger:  logger.WithSession(deps.Logger, state.ID),
	}, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.state.ID }

// Start opens the session at INTRO with the default difficulty and returns the first prompt.
func (c *Controller) Start(ctx context.Context) (*interview.Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Started || c.state.Closed() {
		return nil, interview.ErrAlreadyStarted
	}

	now := c.deps.Now()
	next := c.state.Clone()
	next.Started = true
	next.Phase = interview.PhaseIntro
	next.QIndex = 0
	next.Difficulty = c.start
	next.StartedAt = now
	next.UpdatedAt = now

	q, err := c.pick(next)
	if err != nil {
		return nil, err
	}
	prompt := c.prompt(next, q)

	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	c.state = next
	c.logger.Info("session started", zap.String(logger.FieldQuestionID, q.ID), zap.Stringer("difficulty", next.Difficulty))
	return prompt, nil
}

// Current returns the prompt of the pending question.
func (c *Controller) Current() (*interview.Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.pending()
	if err != nil {
		return nil, err
	}
	return c.prompt(c.state, q), nil
}

// Submit scores text as the answer to the pending question. The returned turn
// holds either the next prompt or, once CLOSING is reached, the final report.
// If ctx is cancelled while the answer is evaluated nothing is recorded.
func (c *Controller) Submit(ctx context.Context, text string) (*interview.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.pending()
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		return nil, interview.ErrEmptyResponse
	}
	if c.agg.Has(q.ID) || c.state.Answered(q.ID) {
		return nil, fmt.Errorf("submit %s: %w", q.ID, interview.ErrDuplicateResult)
	}

	ctx, done := c.track(ctx)
	defer done()

	phase := c.state.Phase
	var flags []string
	if c.deps.Screener != nil {
		if flags, err = c.deps.Screener.Screen(ctx, q, answer); err != nil {
			return nil, fmt.Errorf("screen answer to %s: %w", q.ID, err)
		}
	}

	result, err := c.deps.Evaluator.Evaluate(ctx, q, answer, c.deps.Weights.Axes(phase))
	if err != nil {
		return nil, fmt.Errorf("evaluate answer to %s: %w", q.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate answer to %s: %w", q.ID, err)
	}
	if !result.Scores.InRange() {
		return nil, fmt.Errorf("evaluate answer to %s: scores outside [%.0f, %.0f]", q.ID, interview.MinScore, interview.MaxScore)
	}

	rec := interview.ResponseRecord{
		Sequence:   len(c.state.Responses) + 1,
		QuestionID: q.ID,
		Phase:      phase,
		Difficulty: q.Difficulty,
		Answer:     answer,
		Timestamp:  c.deps.Now(),
		Scores:     result.Scores.Clone(),
		Provenance: result.Provenance,
		Rationale:  result.Rationale,
		Verified:   result.Verified,
		Flags:      flags,
		Narrative:  result.Attempts,
	}

	c.logger.Debug("answer evaluated",
		append(logger.QuestionFields(c.state.ID, string(phase), q.ID),
			zap.String(logger.FieldProvenance, string(rec.Provenance)),
			zap.Strings("flags", flags),
		)...,
	)

	return c.record(ctx, c.state.Clone(), q, rec)
}

// Skip re-offers the pending question. Once the question was skipped MaxSkips
// times the controller records a zero-score skipped answer and moves on.
func (c *Controller) Skip(ctx context.Context) (*interview.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.pending()
	if err != nil {
		return nil, err
	}

	next := c.state.Clone()
	next.Retries[q.ID]++
	attempts := next.Retries[q.ID]

	if attempts < c.cfg.MaxSkips {
		next.UpdatedAt = c.deps.Now()
		if err := c.save(ctx, next); err != nil {
			return nil, err
		}
		c.state = next
		c.logger.Debug("question skipped", zap.String(logger.FieldQuestionID, q.ID), zap.Int("attempts", attempts))
		return &interview.Turn{Prompt: c.prompt(next, q)}, nil
	}

	scores := interview.Scores{}
	for _, axis := range c.deps.Weights.Axes(next.Phase) {
		scores[axis] = interview.MinScore
	}
	rec := interview.ResponseRecord{
		Sequence:   len(next.Responses) + 1,
		QuestionID: q.ID,
		Phase:      next.Phase,
		Difficulty: q.Difficulty,
		Timestamp:  c.deps.Now(),
		Scores:     scores,
		Provenance: interview.ProvenanceSkipped,
		Rationale:  fmt.Sprintf("skipped %d times", attempts),
	}
	c.logger.Info("question skipped, advancing", zap.String(logger.FieldQuestionID, q.ID), zap.Int("attempts", attempts))
	return c.record(ctx, next, q, rec)
}

// ForceTransition moves the session to target outside the normal flow. The
// phase that directly follows the current one is always allowed; any other
// target needs a justification. Staying in the same phase is never allowed.
func (c *Controller) ForceTransition(ctx context.Context, target interview.Phase, justification string) (*interview.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Started {
		return nil, fmt.Errorf("force transition: session not started: %w", interview.ErrInvalidTransition)
	}
	if c.state.Closed() {
		return nil, interview.ErrSessionClosed
	}
	from := c.state.Phase
	if !target.Valid() || target == from {
		return nil, fmt.Errorf("force transition %s -> %q: %w", from, target, interview.ErrInvalidTransition)
	}
	justification = strings.TrimSpace(justification)
	if following, _ := from.Next(); target != following && justification == "" {
		return nil, fmt.Errorf("force transition %s -> %s needs a justification: %w", from, target, interview.ErrInvalidTransition)
	}

	next := c.state.Clone()
	turn := &interview.Turn{}
	if err := c.advance(next, target, true, justification, turn); err != nil {
		return nil, err
	}
	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	c.commit(next)
	return turn, nil
}

// Abandon ends the session early and returns a partial report over what was
// answered. An evaluation still running is cancelled and discarded.
func (c *Controller) Abandon(ctx context.Context) (*interview.FeedbackReport, error) {
	c.cancelInflight()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Abandoned {
		return c.state.Report.Clone(), nil
	}
	if c.state.Terminal {
		return nil, interview.ErrSessionClosed
	}

	next := c.state.Clone()
	next.Abandoned = true
	next.Pending = ""
	next.UpdatedAt = c.deps.Now()
	rep, err := c.reports.Generate(next)
	if err != nil {
		return nil, err
	}
	next.Report = rep

	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	c.state = next
	c.logger.Info("session abandoned", zap.String(logger.FieldPhase, string(next.Phase)), zap.Int("responses", len(next.Responses)))
	return rep.Clone(), nil
}

// Closed reports whether the session is terminal or abandoned.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Closed()
}

// IsComplete reports whether CLOSING was reached and the report generated.
func (c *Controller) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase.Terminal() && c.state.Report != nil
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() *interview.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Report returns the final or partial report once one exists.
func (c *Controller) Report() (*interview.FeedbackReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Report == nil {
		return nil, interview.ErrReportNotReady
	}
	return c.state.Report.Clone(), nil
}

// record appends rec to next, moves the question index, adapts difficulty and
// decides whether the phase ends. Nothing is committed unless the journal stores
// the record and the snapshot together.
func (c *Controller) record(ctx context.Context, next *interview.SessionState, q interview.Question, rec interview.ResponseRecord) (*interview.Turn, error) {
	next.Responses = append(next.Responses, rec)
	next.Pending = ""
	next.QIndex++
	next.UpdatedAt = rec.Timestamp

	if next.Phase == interview.PhaseReflection && q.ReflectionField != "" && !rec.Skipped() {
		next.Reflection.Set(q.ReflectionField, rec.Answer)
	}
	if next.Phase == interview.PhaseAdaptiveQnA {
		tier := difficulty.Next(next.Difficulty, difficulty.CorrectnessHistory(next.Responses), c.cfg.Difficulty)
		if tier != next.Difficulty {
			c.logger.Info("difficulty changed", zap.Stringer("from", next.Difficulty), zap.Stringer("to", tier))
			next.Difficulty = tier
		}
	}

	saved := rec.Clone()
	turn := &interview.Turn{Record: &saved}
	if c.phaseDone(next) {
		following, _ := next.Phase.Next()
		if err := c.advance(next, following, false, "", turn); err != nil {
			return nil, err
		}
	} else {
		nq, err := c.pick(next)
		if err != nil {
			return nil, err
		}
		turn.Prompt = c.prompt(next, nq)
	}

	if c.agg.Has(rec.QuestionID) {
		return nil, fmt.Errorf("record %s: %w", rec.QuestionID, interview.ErrDuplicateResult)
	}
	// The answer is scored; from here on an Abandon must not split the record
	// from its snapshot.
	if err := c.save(context.WithoutCancel(ctx), next, rec); err != nil {
		return nil, err
	}
	if err := c.agg.Add(rec.Phase, rec.QuestionID, rec.Result()); err != nil {
		return nil, err
	}
	c.commit(next)
	return turn, nil
}

func (c *Controller) phaseDone(st *interview.SessionState) bool {
	if st.QIndex >= st.PhaseTotals[st.Phase] {
		return true
	}
	return st.Phase == interview.PhaseReflection && st.Reflection.Complete()
}

// advance moves next into phase to and fills turn with its first prompt, or
// with the final report when to is CLOSING.
func (c *Controller) advance(next *interview.SessionState, to interview.Phase, forced bool, reason string, turn *interview.Turn) error {
	from := next.Phase
	if !forced {
		next.CompletedPhases = append(next.CompletedPhases, from)
	}
	next.History = append(next.History, interview.Transition{From: from, To: to, Forced: forced, Reason: reason})
	next.Phase = to
	next.QIndex = 0
	next.Pending = ""
	next.UpdatedAt = c.deps.Now()

	if to.Terminal() {
		next.Terminal = true
		rep, err := c.reports.Generate(next)
		if err != nil {
			return err
		}
		next.Report = rep
		turn.Report = rep.Clone()
		return nil
	}

	q, err := c.pick(next)
	if err != nil {
		return err
	}
	turn.Prompt = c.prompt(next, q)
	return nil
}

// pick selects the next question of the current phase and marks it pending.
func (c *Controller) pick(st *interview.SessionState) (interview.Question, error) {
	tier := c.start
	if st.Phase == interview.PhaseAdaptiveQnA {
		tier = st.Difficulty
	}
	q, err := c.deps.Bank.Next(st.Phase, tier, st.Asked)
	if err != nil {
		return interview.Question{}, err
	}
	st.Pending = q.ID
	st.Asked = append(st.Asked, q.ID)
	return q, nil
}

func (c *Controller) pending() (interview.Question, error) {
	if c.state.Closed() {
		return interview.Question{}, interview.ErrSessionClosed
	}
	if !c.state.Started || c.state.Pending == "" {
		return interview.Question{}, interview.ErrNoActiveQuestion
	}
	q, ok := c.deps.Bank.Question(c.state.Pending)
	if !ok {
		return interview.Question{}, fmt.Errorf("pending question %s is not in the bank: %w", c.state.Pending, interview.ErrNoActiveQuestion)
	}
	return q, nil
}

func (c *Controller) prompt(st *interview.SessionState, q interview.Question) *interview.Prompt {
	return &interview.Prompt{
		SessionID:  st.ID,
		Phase:      st.Phase,
		QuestionID: q.ID,
		Text:       q.Prompt,
		Context:    q.Context,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		Index:      st.QIndex,
		Total:      st.PhaseTotals[st.Phase],
		Retry:      st.Retries[q.ID],
	}
}

// save journals st together with any new records.
func (c *Controller) save(ctx context.Context, st *interview.SessionState, records ...interview.ResponseRecord) error {
	if c.deps.Journal == nil {
		return nil
	}
	if err := c.deps.Journal.Save(ctx, st, records...); err != nil {
		return fmt.Errorf("save session %s: %w", st.ID, err)
	}
	return nil
}

func (c *Controller) commit(next *interview.SessionState) {
	prev := c.state.Phase
	c.state = next
	if next.Phase != prev {
		c.logger.Info("phase transition",
			zap.String("from", string(prev)),
			zap.String("to", string(next.Phase)),
			zap.Bool("terminal", next.Terminal),
		)
	}
}

// track registers a cancel func for the running evaluation so Abandon can stop it.
func (c *Controller) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	c.inflightMu.Lock()
	c.inflight = cancel
	c.inflightMu.Unlock()
	return ctx, func() {
		c.inflightMu.Lock()
		c.inflight = nil
		c.inflightMu.Unlock()
		cancel()
	}
}

func (c *Controller) cancelInflight() {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	if c.inflight != nil {
		c.inflight()
	}
}
