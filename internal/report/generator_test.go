package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/scoring"
)

func qna(id string, correctness, other float64) interview.ResponseRecord {
	return interview.ResponseRecord{
		QuestionID: id,
		Phase:      interview.PhaseAdaptiveQnA,
		Provenance: interview.ProvenanceRuleNarrative,
		Scores: interview.Scores{
			interview.AxisCorrectness:           correctness,
			interview.AxisExplanation:           other,
			interview.AxisExcelSpecificity:      other,
			interview.AxisDifficultyConsistency: other,
		},
	}
}

func scenario(id string, specificity float64) interview.ResponseRecord {
	return interview.ResponseRecord{
		QuestionID: id,
		Phase:      interview.PhaseScenario,
		Provenance: interview.ProvenanceDegraded,
		Flags:      []string{interview.FlagBrief},
		Scores: interview.Scores{
			interview.AxisProblemSolving:   5,
			interview.AxisRealism:          5,
			interview.AxisExcelSpecificity: specificity,
			interview.AxisExplanation:      5,
		},
	}
}

func completedState() *interview.SessionState {
	return &interview.SessionState{
		ID:       "s-1",
		Phase:    interview.PhaseClosing,
		Terminal: true,
		CompletedPhases: []interview.Phase{
			interview.PhaseIntro, interview.PhaseAdaptiveQnA, interview.PhaseScenario, interview.PhaseReflection,
		},
		Responses: []interview.ResponseRecord{
			{QuestionID: "intro", Phase: interview.PhaseIntro, Provenance: interview.ProvenanceRuleOnly, Scores: interview.Scores{}},
			qna("q1", 5, 4.5),
			qna("q2", 5, 4),
			scenario("s1", 0.5),
			{QuestionID: "s2", Phase: interview.PhaseScenario, Provenance: interview.ProvenanceSkipped, Scores: interview.Scores{
				interview.AxisProblemSolving: 0, interview.AxisRealism: 0, interview.AxisExcelSpecificity: 0, interview.AxisExplanation: 0,
			}},
		},
		Reflection: interview.Reflection{Confidence: "7"},
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(scoring.DefaultWeights())
	state := completedState()

	first, err := gen.Generate(state)
	require.NoError(t, err)
	second, err := gen.Generate(state)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGenerateRanksAndRecommends(t *testing.T) {
	t.Parallel()

	rep, err := NewGenerator(scoring.DefaultWeights()).Generate(completedState())
	require.NoError(t, err)

	assert.Equal(t, interview.CompletenessFull, rep.Completeness)
	assert.GreaterOrEqual(t, rep.OverallScore, 0.0)
	assert.LessOrEqual(t, rep.OverallScore, 100.0)
	assert.Equal(t, 4, rep.Answered)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Provenance[interview.ProvenanceDegraded])

	require.NotEmpty(t, rep.Weaknesses)
	weakest := rep.Weaknesses[0]
	assert.Equal(t, interview.AxisExcelSpecificity, weakest.Axis)
	assert.Equal(t, interview.PhaseScenario, weakest.Phase)
	assert.Contains(t, rep.NextSteps[0], "Power Query / advanced lookups")

	require.NotEmpty(t, rep.Strengths)
	assert.Equal(t, interview.AxisCorrectness, rep.Strengths[0].Axis)
	assert.Equal(t, interview.BucketStrong, rep.Strengths[0].Bucket)

	for i := 1; i < len(rep.Weaknesses); i++ {
		assert.LessOrEqual(t, rep.Weaknesses[i-1].Percentile, rep.Weaknesses[i].Percentile)
	}
	assert.LessOrEqual(t, len(rep.NextSteps), 3)

	var correctness interview.AxisSummary
	for _, s := range rep.Axes {
		if s.Axis == interview.AxisCorrectness {
			correctness = s
		}
	}
	assert.Equal(t, 2, correctness.Count)
	assert.Equal(t, 5.0, correctness.Min)
	assert.Equal(t, 100.0, correctness.Percentile)

	assert.Contains(t, rep.Observations, "1 answer(s) were brief; provide more detailed explanations")
	assert.Contains(t, rep.Observations, "1 question(s) were skipped")
}

func TestGeneratePartialWhenAbandoned(t *testing.T) {
	t.Parallel()

	state := &interview.SessionState{
		ID:        "s-2",
		Phase:     interview.PhaseAdaptiveQnA,
		Abandoned: true,
		Responses: []interview.ResponseRecord{qna("q1", 5, 5)},
	}
	rep, err := NewGenerator(scoring.DefaultWeights()).Generate(state)
	require.NoError(t, err)

	assert.Equal(t, interview.CompletenessPartial, rep.Completeness)
	assert.True(t, rep.Abandoned)
	assert.Equal(t, 100.0, rep.OverallScore, "unanswered phases must not lower the score")
	assert.Len(t, rep.Phases, 1)
	assert.Empty(t, rep.Weaknesses)
	assert.Equal(t, fallbackSteps[:3], rep.NextSteps)
}

func TestGeneratePartialWhenPhasesForcedPast(t *testing.T) {
	t.Parallel()

	state := completedState()
	state.CompletedPhases = []interview.Phase{interview.PhaseIntro, interview.PhaseAdaptiveQnA}
	rep, err := NewGenerator(scoring.DefaultWeights()).Generate(state)
	require.NoError(t, err)
	assert.Equal(t, interview.CompletenessPartial, rep.Completeness)
}

func TestGenerateEmptySession(t *testing.T) {
	t.Parallel()

	rep, err := NewGenerator(scoring.DefaultWeights()).Generate(&interview.SessionState{ID: "s-3", Phase: interview.PhaseIntro})
	require.NoError(t, err)
	assert.Zero(t, rep.OverallScore)
	assert.Empty(t, rep.Axes)
	assert.Len(t, rep.NextSteps, 3)

	_, err = NewGenerator(scoring.DefaultWeights()).Generate(nil)
	assert.Error(t, err)
}

func TestTopicFallsBackToAxis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Power Query / advanced lookups", Topic(interview.PhaseScenario, interview.AxisExcelSpecificity))
	assert.Equal(t, "honest self-assessment", Topic(interview.PhaseAdaptiveQnA, interview.AxisSelfAwareness))
	assert.Equal(t, "mystery", Topic(interview.PhaseScenario, interview.Axis("mystery")))
}
