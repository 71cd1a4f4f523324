package interview

// Axis names one rubric scoring dimension.
type Axis string

const (
	AxisCorrectness           Axis = "correctness"
	AxisExplanation           Axis = "explanation"
	AxisExcelSpecificity      Axis = "excel_specificity"
	AxisDifficultyConsistency Axis = "difficulty_consistency"
	AxisProblemSolving        Axis = "problem_solving"
	AxisRealism               Axis = "realism"
	AxisSelfAwareness         Axis = "self_awareness"
)

// Axes lists every known axis in reporting order.
var Axes = []Axis{
	AxisCorrectness,
	AxisExplanation,
	AxisExcelSpecificity,
	AxisDifficultyConsistency,
	AxisProblemSolving,
	AxisRealism,
	AxisSelfAwareness,
}

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Scores maps rubric axes to values in [MinScore, MaxScore].
type Scores map[Axis]float64

// Clone returns an independent copy of s.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// InRange reports whether every value lies in [MinScore, MaxScore].
func (s Scores) InRange() bool {
	for _, v := range s {
		if v < MinScore || v > MaxScore || v != v {
			return false
		}
	}
	return true
}

// Clamp limits v to [MinScore, MaxScore].
func Clamp(v float64) float64 {
	if v != v || v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Provenance tells which scoring sources contributed to a result.
type Provenance string

const (
	ProvenanceRuleOnly      Provenance = "rule-only"
	ProvenanceRuleNarrative Provenance = "rule+narrative"
	ProvenanceDegraded      Provenance = "degraded"
	ProvenanceSkipped       Provenance = "skipped"
)

// RubricResult is the evaluator output for one answer.
type RubricResult struct {
	Scores     Scores     `json:"scores"`
	Rationale  string     `json:"rationale"`
	Provenance Provenance `json:"provenance"`
	// Verified is set when the rule checker matched or refuted the answer.
	Verified bool `json:"verified"`
	// DegradeReason explains a degraded result.
	DegradeReason string `json:"degrade_reason,omitempty"`
	// Attempts holds every narrative scorer call made for the answer.
	Attempts []NarrativeAttempt `json:"attempts,omitempty"`
}

// NarrativeAttempt is one call to the narrative scorer as it was answered.
// Raw is the unparsed scorer output; it is empty when the call produced none.
type NarrativeAttempt struct {
	Attempt int    `json:"attempt"`
	Raw     string `json:"raw,omitempty"`
	Error   string `json:"error,omitempty"`
}
