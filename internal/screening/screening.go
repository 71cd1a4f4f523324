// Package screening flags answers before they are scored. Flags never change
// scores or the phase flow; they surface as report observations.
package screening

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
)

// Check represents a single screening step applied to an answer.
type Check interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, a *Answer) (Step, error)
}

// Deps aggregates dependencies shared across all checks.
type Deps struct {
	Logger *zap.Logger
}

// Answer is the subject of a screening run.
type Answer struct {
	Question interview.Question
	Text     string
}

// Step describes the result of executing a check.
type Step struct {
	Flag   string
	Detail string
}

// Flagged reports whether the check attached a flag.
func (s Step) Flagged() bool { return s.Flag != "" }

// Config contains settings consumed by the checks.
type Config struct {
	BriefWords       int      `mapstructure:"brief-words"`
	OffTopicMinWords int      `mapstructure:"off-topic-min-words"`
	OffTopicMaxWords int      `mapstructure:"off-topic-max-words"`
	Keywords         []string `mapstructure:"keywords"`
}

// DefaultConfig flags answers under 20 words as brief, and answers under 5
// words, or over 10 words without Excel vocabulary, as off topic.
func DefaultConfig() Config {
	return Config{
		BriefWords:       20,
		OffTopicMinWords: 5,
		OffTopicMaxWords: 10,
		Keywords: []string{
			"excel", "formula", "function", "cell", "worksheet", "workbook", "pivot",
			"chart", "sum", "average", "vlookup", "xlookup", "index", "match", "table",
			"column", "row", "range", "filter", "query", "macro", "lookup",
		},
	}
}

// Status represents runtime information about a check.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DefaultChecks returns the brief, off-topic and formula checks.
func DefaultChecks() []Check {
	return []Check{NewBrief(), NewOffTopic(), NewFormula()}
}

// DisableByName marks a check with the provided name as disabled while keeping it in the list.
func DisableByName(checks []Check, name, reason string) {
	for _, check := range checks {
		if check.Name() == name {
			check.Disable(reason)
		}
	}
}

// Run validates the enabled checks against cfg, then applies them in order and
// returns the sorted flags they raised.
func Run(ctx context.Context, cfg *Config, deps Deps, checks []Check, a *Answer) ([]string, error) {
	if err := validate(cfg, checks); err != nil {
		return nil, err
	}
	return apply(ctx, deps, checks, a)
}

func validate(cfg *Config, checks []Check) error {
	for _, check := range checks {
		if !check.IsEnabled() {
			continue
		}
		if err := check.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", check.Name(), err)
		}
	}
	return nil
}

// apply only reads check state, so validated checks can be shared across goroutines.
func apply(ctx context.Context, deps Deps, checks []Check, a *Answer) ([]string, error) {
	var flags []string
	for _, check := range checks {
		if !check.IsEnabled() {
			continue
		}

		step, err := check.Apply(ctx, deps, a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", check.Name(), err)
		}
		if !step.Flagged() {
			continue
		}

		if deps.Logger != nil {
			deps.Logger.Debug("screening flag",
				zap.String("check", check.Name()),
				zap.String("flag", step.Flag),
				zap.String("detail", step.Detail),
				zap.String("question_id", a.Question.ID),
			)
		}
		flags = append(flags, step.Flag)
	}

	sort.Strings(flags)
	return flags, nil
}

// Describe returns status entries for the provided checks.
func Describe(checks []Check) []Status {
	statuses := make([]Status, 0, len(checks))
	for _, check := range checks {
		if reporter, ok := check.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: check.Name(), Enabled: check.IsEnabled()})
	}
	return statuses
}

// Screener binds a config and a check list for repeated use.
type Screener struct {
	cfg    Config
	checks []Check
	logger *zap.Logger
}

// NewScreener validates cfg against checks once. The checks must not be
// disabled or revalidated afterwards; Screen is safe for concurrent use.
func NewScreener(cfg Config, checks []Check, logger *zap.Logger) (*Screener, error) {
	if err := validate(&cfg, checks); err != nil {
		return nil, err
	}
	return &Screener{cfg: cfg, checks: checks, logger: logger}, nil
}

// Screen returns the flags raised for text as an answer to q.
func (s *Screener) Screen(ctx context.Context, q interview.Question, text string) ([]string, error) {
	return apply(ctx, Deps{Logger: s.logger}, s.checks, &Answer{Question: q, Text: text})
}
