// Package ai defines the contract of the external narrative scorer.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/utils"
)

// DefaultMaxRationaleWords bounds the rationale length accepted from a scorer.
const DefaultMaxRationaleWords = 40

// NarrativeRequest is what the scorer judges.
type NarrativeRequest struct {
	QuestionText string
	Context      string
	AnswerText   string
	Axes         []interview.Axis
	Difficulty   interview.Difficulty
	Phase        interview.Phase
}

// NarrativeResult is a validated scorer response. Raw is the output it was
// parsed from, when the scorer exposes it.
type NarrativeResult struct {
	Scores    interview.Scores
	Rationale string
	Raw       string
}

// ResponseError carries the raw output of a scorer call that failed validation.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string { return e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// RawResponse returns the scorer output attached to err, if any.
func RawResponse(err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Raw
	}
	return ""
}

// Scorer produces narrative rubric scores. Implementations must return errors
// wrapping interview.ErrEvaluationSchemaInvalid for output that fails validation.
type Scorer interface {
	Score(ctx context.Context, req NarrativeRequest) (NarrativeResult, error)
}

type wireResponse struct {
	Scores    map[string]json.RawMessage `json:"scores"`
	Rationale *string                    `json:"rationale"`
}

// ParseNarrative validates raw scorer output against the response schema
// {"scores": {axis: 0..5}, "rationale": string}. The payload may be wrapped in a
// single ```json fence; any other surrounding text, unknown key, missing or
// extra axis, non-numeric or out-of-range value, or over-long rationale fails.
func ParseNarrative(raw string, axes []interview.Axis, maxWords int) (NarrativeResult, error) {
	payload, err := unwrapFence(raw)
	if err != nil {
		return NarrativeResult{}, schemaError(err)
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()

	var wire wireResponse
	if err := dec.Decode(&wire); err != nil {
		return NarrativeResult{}, schemaError(fmt.Errorf("decode response: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return NarrativeResult{}, schemaError(errors.New("trailing content after JSON object"))
	}

	if wire.Scores == nil {
		return NarrativeResult{}, schemaError(errors.New("missing scores"))
	}
	if wire.Rationale == nil {
		return NarrativeResult{}, schemaError(errors.New("missing rationale"))
	}

	expected := make(map[interview.Axis]struct{}, len(axes))
	for _, axis := range axes {
		expected[axis] = struct{}{}
	}

	scores := make(interview.Scores, len(axes))
	for key, rawValue := range wire.Scores {
		axis := interview.Axis(key)
		if _, ok := expected[axis]; !ok {
			return NarrativeResult{}, schemaError(fmt.Errorf("unexpected axis %q", key))
		}
		// Unmarshal accepts null into a float and leaves zero behind.
		var value *float64
		if err := json.Unmarshal(bytes.TrimSpace(rawValue), &value); err != nil || value == nil {
			return NarrativeResult{}, schemaError(fmt.Errorf("axis %q is not a number", key))
		}
		if math.IsNaN(*value) || *value < interview.MinScore || *value > interview.MaxScore {
			return NarrativeResult{}, schemaError(fmt.Errorf("axis %q value %v outside [0, 5]", key, *value))
		}
		scores[axis] = *value
	}
	for _, axis := range axes {
		if _, ok := scores[axis]; !ok {
			return NarrativeResult{}, schemaError(fmt.Errorf("missing axis %q", axis))
		}
	}

	rationale := strings.TrimSpace(*wire.Rationale)
	if maxWords <= 0 {
		maxWords = DefaultMaxRationaleWords
	}
	if words := utils.WordCount(rationale); words > maxWords {
		return NarrativeResult{}, schemaError(fmt.Errorf("rationale has %d words, limit %d", words, maxWords))
	}

	return NarrativeResult{Scores: scores, Rationale: rationale, Raw: raw}, nil
}

func unwrapFence(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("empty response")
	}
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed, nil
	}

	body := strings.TrimPrefix(trimmed, "```")
	body = strings.TrimPrefix(body, "json")
	if !strings.HasSuffix(body, "```") {
		return "", errors.New("unterminated code fence")
	}
	body = strings.TrimSpace(strings.TrimSuffix(body, "```"))
	if strings.Contains(body, "```") {
		return "", errors.New("multiple code fences")
	}
	return body, nil
}

func schemaError(err error) error {
	return fmt.Errorf("%w: %v", interview.ErrEvaluationSchemaInvalid, err)
}
