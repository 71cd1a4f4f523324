package session

import (
	"errors"
	"fmt"

	"github.com/spigell/interview-coach/internal/difficulty"
	"github.com/spigell/interview-coach/internal/interview"
)

// QuestionCounts holds how many questions each non-terminal phase asks.
type QuestionCounts struct {
	Intro       int `mapstructure:"intro"`
	AdaptiveQnA int `mapstructure:"adaptive-qna"`
	Scenario    int `mapstructure:"scenario"`
	Reflection  int `mapstructure:"reflection"`
}

// Map returns the counts keyed by phase.
func (c QuestionCounts) Map() map[interview.Phase]int {
	return map[interview.Phase]int{
		interview.PhaseIntro:       c.Intro,
		interview.PhaseAdaptiveQnA: c.AdaptiveQnA,
		interview.PhaseScenario:    c.Scenario,
		interview.PhaseReflection:  c.Reflection,
	}
}

// Config is the "interview" section of the configuration file.
type Config struct {
	Questions         QuestionCounts    `mapstructure:"questions"`
	DefaultDifficulty string            `mapstructure:"default-difficulty"`
	MaxSkips          int               `mapstructure:"max-skips"`
	Difficulty        difficulty.Config `mapstructure:"difficulty"`
}

func DefaultConfig() Config {
	return Config{
		Questions: QuestionCounts{
			Intro:       1,
			AdaptiveQnA: 5,
			Scenario:    1,
			Reflection:  4,
		},
		DefaultDifficulty: interview.DefaultDifficulty.String(),
		MaxSkips:          2,
		Difficulty:        difficulty.DefaultConfig(),
	}
}

// StartDifficulty returns the parsed default tier, falling back to intermediate when unset.
func (c Config) StartDifficulty() (interview.Difficulty, error) {
	if c.DefaultDifficulty == "" {
		return interview.DefaultDifficulty, nil
	}
	return interview.ParseDifficulty(c.DefaultDifficulty)
}

// Validate collects every problem with the config.
func (c Config) Validate() error {
	var errs []error
	for phase, n := range c.Questions.Map() {
		if n < 1 {
			errs = append(errs, fmt.Errorf("interview.questions.%s must be at least 1, got %d", phase, n))
		}
	}
	if c.MaxSkips < 1 {
		errs = append(errs, fmt.Errorf("interview.max-skips must be at least 1, got %d", c.MaxSkips))
	}
	if _, err := c.StartDifficulty(); err != nil {
		errs = append(errs, fmt.Errorf("interview.default-difficulty: %w", err))
	}
	if err := c.Difficulty.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("interview.difficulty: %w", err))
	}
	return errors.Join(errs...)
}
