package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

// Service is the session API: every call is routed to the controller of the session id.
// With a journal configured, closed sessions are evicted from memory and
// sessions missing from memory are restored from the journal on demand.
type Service struct {
	store  *Store
	cfg    Config
	deps   Deps
	newID  func() string
	logger *zap.Logger
}

// NewService validates cfg and deps once for every session it will create.
func NewService(cfg Config, deps Deps) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate interview config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("validate session deps: %w", err)
	}
	if v, ok := deps.Bank.(interface {
		Validate(map[interview.Phase]int) error
	}); ok {
		if err := v.Validate(cfg.Questions.Map()); err != nil {
			return nil, fmt.Errorf("validate question bank: %w", err)
		}
	}
	return &Service{
		store:  NewStore(),
		cfg:    cfg,
		deps:   deps,
		newID:  uuid.NewString,
		logger: logger.WithFields(deps.Logger),
	}, nil
}

// Start opens a new session. An empty id gets a generated one.
func (s *Service) Start(ctx context.Context, id string) (*interview.Prompt, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = s.newID()
	}

	c, err := s.controller(ctx, id)
	switch {
	case err == nil:
		return c.Start(ctx)
	case !errors.Is(err, interview.ErrSessionNotFound):
		return nil, err
	}

	c, err = NewController(id, s.cfg, s.deps)
	if err != nil {
		return nil, err
	}
	c, _ = s.store.Add(c)
	return c.Start(ctx)
}

func (s *Service) Submit(ctx context.Context, id, text string) (*interview.Turn, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	turn, err := c.Submit(ctx, text)
	s.release(c)
	return turn, err
}

func (s *Service) Skip(ctx context.Context, id string) (*interview.Turn, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	turn, err := c.Skip(ctx)
	s.release(c)
	return turn, err
}

func (s *Service) ForceTransition(ctx context.Context, id string, target interview.Phase, justification string) (*interview.Turn, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	turn, err := c.ForceTransition(ctx, target, justification)
	s.release(c)
	return turn, err
}

func (s *Service) Abandon(ctx context.Context, id string) (*interview.FeedbackReport, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	rep, err := c.Abandon(ctx)
	s.release(c)
	return rep, err
}

// Current returns the pending prompt of the session.
func (s *Service) Current(ctx context.Context, id string) (*interview.Prompt, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Current()
}

// State returns a copy of the session state.
func (s *Service) State(ctx context.Context, id string) (*interview.SessionState, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

func (s *Service) Report(ctx context.Context, id string) (*interview.FeedbackReport, error) {
	c, err := s.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Report()
}

// Sessions lists the ids of sessions held in memory.
func (s *Service) Sessions() []string { return s.store.IDs() }

// Live returns the number of sessions held in memory.
func (s *Service) Live() int { return s.store.Len() }

// release evicts c once it is closed. Its state stays in the journal, so later
// reads restore it; without a journal the session is kept for its report.
func (s *Service) release(c *Controller) {
	if s.deps.Journal == nil || !c.Closed() {
		return
	}
	s.store.Delete(c.ID())
	s.logger.Debug("closed session evicted", zap.String(logger.FieldSessionID, c.ID()))
}

func (s *Service) controller(ctx context.Context, id string) (*Controller, error) {
	c, err := s.store.Get(id)
	if err == nil || s.deps.Journal == nil {
		return c, err
	}

	state, err := s.deps.Journal.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	restored, err := Restore(state, s.cfg, s.deps)
	if err != nil {
		return nil, err
	}
	if state.Closed() {
		return restored, nil
	}
	c, added := s.store.Add(restored)
	if added {
		s.logger.Info("session restored from journal",
			zap.String(logger.FieldSessionID, id),
			zap.String(logger.FieldPhase, string(state.Phase)),
			zap.Int("responses", len(state.Responses)),
		)
	}
	return c, nil
}
