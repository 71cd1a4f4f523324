package screening

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/utils"
)

type briefCheck struct {
	disabled bool
	reason   string
	minWords int
}

// NewBrief flags short answers to questions that expect an explanation.
func NewBrief() Check { return &briefCheck{} }

func (c *briefCheck) Name() string { return interview.FlagBrief }

func (c *briefCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *briefCheck) IsEnabled() bool { return !c.disabled }

func (c *briefCheck) Validate(cfg *Config) error {
	if cfg == nil || cfg.BriefWords <= 0 {
		return errors.New("brief-words must be positive")
	}
	c.minWords = cfg.BriefWords
	return nil
}

func (c *briefCheck) Apply(_ context.Context, _ Deps, a *Answer) (Step, error) {
	if a.Question.Type == interview.TypeFormula {
		return Step{}, nil
	}
	words := utils.WordCount(a.Text)
	if words >= c.minWords {
		return Step{}, nil
	}
	return Step{Flag: interview.FlagBrief, Detail: fmt.Sprintf("%d words, expected at least %d", words, c.minWords)}, nil
}

func (c *briefCheck) Status() Status {
	return Status{
		Name:    c.Name(),
		Enabled: c.IsEnabled(),
		Reason:  c.reason,
		Details: map[string]string{"min_words": strconv.Itoa(c.minWords)},
	}
}

type offTopicCheck struct {
	disabled bool
	reason   string
	minWords int
	maxWords int
	keywords []string
}

// NewOffTopic flags answers that are too short to judge or carry no Excel vocabulary.
func NewOffTopic() Check { return &offTopicCheck{} }

func (c *offTopicCheck) Name() string { return interview.FlagOffTopic }

func (c *offTopicCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *offTopicCheck) IsEnabled() bool { return !c.disabled }

func (c *offTopicCheck) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is required")
	}
	if cfg.OffTopicMinWords < 0 || cfg.OffTopicMaxWords < cfg.OffTopicMinWords {
		return fmt.Errorf("invalid off-topic word bounds %d..%d", cfg.OffTopicMinWords, cfg.OffTopicMaxWords)
	}
	if len(cfg.Keywords) == 0 {
		return errors.New("keywords must not be empty")
	}
	c.minWords = cfg.OffTopicMinWords
	c.maxWords = cfg.OffTopicMaxWords
	c.keywords = c.keywords[:0]
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	return nil
}

func (c *offTopicCheck) Apply(_ context.Context, _ Deps, a *Answer) (Step, error) {
	if a.Question.Type == interview.TypeFormula && hasFormula(a.Text) {
		return Step{}, nil
	}

	words := utils.WordCount(a.Text)
	if words < c.minWords {
		return Step{Flag: interview.FlagOffTopic, Detail: fmt.Sprintf("only %d words", words)}, nil
	}
	if words > c.maxWords && !c.mentionsExcel(a.Text) {
		return Step{Flag: interview.FlagOffTopic, Detail: "no Excel vocabulary"}, nil
	}
	return Step{}, nil
}

func (c *offTopicCheck) mentionsExcel(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func (c *offTopicCheck) Status() Status {
	return Status{
		Name:    c.Name(),
		Enabled: c.IsEnabled(),
		Reason:  c.reason,
		Details: map[string]string{
			"min_words": strconv.Itoa(c.minWords),
			"max_words": strconv.Itoa(c.maxWords),
			"keywords":  strconv.Itoa(len(c.keywords)),
		},
	}
}

var formulaPattern = regexp.MustCompile(`=\s*[A-Za-z][A-Za-z0-9.]*\s*\(`)

func hasFormula(text string) bool {
	return formulaPattern.MatchString(text)
}

type formulaCheck struct {
	disabled bool
	reason   string
}

// NewFormula flags answers that contain a spreadsheet formula.
func NewFormula() Check { return &formulaCheck{} }

func (c *formulaCheck) Name() string { return interview.FlagFormula }

func (c *formulaCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *formulaCheck) IsEnabled() bool { return !c.disabled }

func (c *formulaCheck) Validate(*Config) error { return nil }

func (c *formulaCheck) Apply(_ context.Context, _ Deps, a *Answer) (Step, error) {
	if !hasFormula(a.Text) {
		return Step{}, nil
	}
	return Step{Flag: interview.FlagFormula}, nil
}
