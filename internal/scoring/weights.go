// Package scoring aggregates rubric results under fixed per-phase axis weights.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/interview-coach/internal/interview"
)

const weightTolerance = 1e-6

// QnAWeights is the ADAPTIVE_QNA axis table.
type QnAWeights struct {
	Correctness           float64 `mapstructure:"correctness"`
	Explanation           float64 `mapstructure:"explanation"`
	ExcelSpecificity      float64 `mapstructure:"excel-specificity"`
	DifficultyConsistency float64 `mapstructure:"difficulty-consistency"`
}

// ScenarioWeights is the SCENARIO axis table.
type ScenarioWeights struct {
	ProblemSolving   float64 `mapstructure:"problem-solving"`
	Realism          float64 `mapstructure:"realism"`
	ExcelSpecificity float64 `mapstructure:"excel-specificity"`
	Explanation      float64 `mapstructure:"explanation"`
}

// ReflectionWeights is the REFLECTION axis table.
type ReflectionWeights struct {
	SelfAwareness float64 `mapstructure:"self-awareness"`
	Realism       float64 `mapstructure:"realism"`
	Explanation   float64 `mapstructure:"explanation"`
}

// Weights enumerates the axis table of every scored phase.
type Weights struct {
	AdaptiveQnA QnAWeights        `mapstructure:"adaptive-qna"`
	Scenario    ScenarioWeights   `mapstructure:"scenario"`
	Reflection  ReflectionWeights `mapstructure:"reflection"`
}

// AxisWeight pairs an axis with its weight.
type AxisWeight struct {
	Axis   interview.Axis
	Weight float64
}

// DefaultWeights returns the built-in tables.
func DefaultWeights() Weights {
	return Weights{
		AdaptiveQnA: QnAWeights{Correctness: 0.4, Explanation: 0.2, ExcelSpecificity: 0.2, DifficultyConsistency: 0.2},
		Scenario:    ScenarioWeights{ProblemSolving: 0.35, Realism: 0.25, ExcelSpecificity: 0.2, Explanation: 0.2},
		Reflection:  ReflectionWeights{SelfAwareness: 0.5, Realism: 0.3, Explanation: 0.2},
	}
}

// Table returns the ordered axis table of phase. Unscored phases have none.
func (w Weights) Table(phase interview.Phase) []AxisWeight {
	switch phase {
	case interview.PhaseAdaptiveQnA:
		return []AxisWeight{
			{interview.AxisCorrectness, w.AdaptiveQnA.Correctness},
			{interview.AxisExplanation, w.AdaptiveQnA.Explanation},
			{interview.AxisExcelSpecificity, w.AdaptiveQnA.ExcelSpecificity},
			{interview.AxisDifficultyConsistency, w.AdaptiveQnA.DifficultyConsistency},
		}
	case interview.PhaseScenario:
		return []AxisWeight{
			{interview.AxisProblemSolving, w.Scenario.ProblemSolving},
			{interview.AxisRealism, w.Scenario.Realism},
			{interview.AxisExcelSpecificity, w.Scenario.ExcelSpecificity},
			{interview.AxisExplanation, w.Scenario.Explanation},
		}
	case interview.PhaseReflection:
		return []AxisWeight{
			{interview.AxisSelfAwareness, w.Reflection.SelfAwareness},
			{interview.AxisRealism, w.Reflection.Realism},
			{interview.AxisExplanation, w.Reflection.Explanation},
		}
	default:
		return nil
	}
}

// Axes lists the rubric axes scored in phase.
func (w Weights) Axes(phase interview.Phase) []interview.Axis {
	table := w.Table(phase)
	out := make([]interview.Axis, 0, len(table))
	for _, aw := range table {
		out = append(out, aw.Axis)
	}
	return out
}

// Validate requires non-negative weights that sum to one in every scored phase.
func (w Weights) Validate() error {
	var errs []error
	for _, phase := range interview.Phases {
		table := w.Table(phase)
		if table == nil {
			continue
		}
		var sum float64
		for _, aw := range table {
			if aw.Weight < 0 || math.IsNaN(aw.Weight) {
				errs = append(errs, fmt.Errorf("%s.%s: weight %.3f is negative", phase, aw.Axis, aw.Weight))
			}
			sum += aw.Weight
		}
		if math.Abs(sum-1) > weightTolerance {
			errs = append(errs, fmt.Errorf("%s: weights sum to %.3f, want 1", phase, sum))
		}
	}
	return errors.Join(errs...)
}

// DecodeWeights overlays raw configuration on the defaults. A phase present in raw
// replaces that phase's table entirely. Unknown phases or axes are rejected.
func DecodeWeights(raw map[string]any) (Weights, error) {
	weights := DefaultWeights()
	for key, value := range raw {
		var target any
		switch key {
		case "adaptive-qna", "adaptive_qna":
			weights.AdaptiveQnA = QnAWeights{}
			target = &weights.AdaptiveQnA
		case "scenario":
			weights.Scenario = ScenarioWeights{}
			target = &weights.Scenario
		case "reflection":
			weights.Reflection = ReflectionWeights{}
			target = &weights.Reflection
		default:
			return Weights{}, fmt.Errorf("unknown weight table %q", key)
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           target,
		})
		if err != nil {
			return Weights{}, fmt.Errorf("create weights decoder: %w", err)
		}
		if err := decoder.Decode(value); err != nil {
			return Weights{}, fmt.Errorf("decode %s weights: %w", key, err)
		}
	}

	if err := weights.Validate(); err != nil {
		return Weights{}, fmt.Errorf("validate weights: %w", err)
	}
	return weights, nil
}
