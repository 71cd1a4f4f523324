package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/utils"
)

// ProviderName identifies this scorer in logs.
const ProviderName = "gemini"

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Scorer implements ai.Scorer on top of a Gemini generator.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	maxWords  int
}

var _ ai.Scorer = (*Scorer)(nil)

func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength, maxRationaleWords int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if maxRationaleWords <= 0 {
		maxRationaleWords = ai.DefaultMaxRationaleWords
	}

	return &Scorer{
		generator: generator,
		logger:    logger.WithAI(log, ProviderName, generator.Model()),
		maxLogLen: maxLogLength,
		maxWords:  maxRationaleWords,
	}
}

type requestPayload struct {
	Question   string   `json:"question"`
	Context    string   `json:"context,omitempty"`
	Phase      string   `json:"phase"`
	Difficulty string   `json:"difficulty"`
	Axes       []string `json:"axes"`
	Answer     string   `json:"answer"`
}

func (s *Scorer) Score(ctx context.Context, req ai.NarrativeRequest) (ai.NarrativeResult, error) {
	if len(req.Axes) == 0 {
		return ai.NarrativeResult{}, fmt.Errorf("narrative request has no axes")
	}

	system := buildPrompt(req.Axes, s.maxWords)
	message, err := buildMessage(req)
	if err != nil {
		return ai.NarrativeResult{}, err
	}

	s.logger.Debug("gemini generate content request",
		zap.String(logger.FieldPhase, string(req.Phase)),
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("answer_preview", utils.TruncateForLog(req.AnswerText, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return ai.NarrativeResult{}, err
	}

	s.logger.Debug("gemini generate content response",
		zap.String(logger.FieldPhase, string(req.Phase)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	result, err := ai.ParseNarrative(raw, req.Axes, s.maxWords)
	if err != nil {
		return ai.NarrativeResult{}, &ai.ResponseError{Raw: raw, Err: err}
	}
	return result, nil
}

func buildPrompt(axes []interview.Axis, maxWords int) string {
	names := make([]string, 0, len(axes))
	for _, axis := range axes {
		names = append(names, "- "+string(axis))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{AXES}}", strings.Join(names, "\n"))
	return strings.ReplaceAll(prompt, "{{MAX_WORDS}}", strconv.Itoa(maxWords))
}

func buildMessage(req ai.NarrativeRequest) (string, error) {
	axes := make([]string, 0, len(req.Axes))
	for _, axis := range req.Axes {
		axes = append(axes, string(axis))
	}

	payload, err := json.MarshalIndent(requestPayload{
		Question:   req.QuestionText,
		Context:    req.Context,
		Phase:      string(req.Phase),
		Difficulty: req.Difficulty.String(),
		Axes:       axes,
		Answer:     req.AnswerText,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal narrative request: %w", err)
	}
	return string(payload), nil
}
