package interview

// Bucket is the qualitative tier of an axis percentile.
type Bucket string

const (
	BucketStrong     Bucket = "strong"
	BucketProficient Bucket = "proficient"
	BucketDeveloping Bucket = "developing"
	BucketNeedsWork  Bucket = "needs_work"
)

// BucketFor maps a 0..100 percentile to its tier.
func BucketFor(percentile float64) Bucket {
	switch {
	case percentile >= 80:
		return BucketStrong
	case percentile >= 60:
		return BucketProficient
	case percentile >= 40:
		return BucketDeveloping
	default:
		return BucketNeedsWork
	}
}

// Completeness tells whether a report covers the whole interview.
type Completeness string

const (
	CompletenessFull    Completeness = "full"
	CompletenessPartial Completeness = "partial"
)

// AxisSummary aggregates one axis over every scored record.
type AxisSummary struct {
	Axis       Axis    `json:"axis"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentile float64 `json:"percentile"`
	Bucket     Bucket  `json:"bucket"`
}

// PhaseSummary is the normalized score of one answered phase.
type PhaseSummary struct {
	Phase    Phase   `json:"phase"`
	Score    float64 `json:"score"`
	Answered int     `json:"answered"`
}

// Finding is a ranked strength or weakness. Phase is where the axis scored lowest.
type Finding struct {
	Axis       Axis    `json:"axis"`
	Phase      Phase   `json:"phase"`
	Percentile float64 `json:"percentile"`
	Bucket     Bucket  `json:"bucket"`
}

// FeedbackReport carries no generation timestamp so regeneration is byte-identical.
type FeedbackReport struct {
	SessionID    string             `json:"session_id"`
	OverallScore float64            `json:"overall_score"`
	Completeness Completeness       `json:"completeness"`
	Abandoned    bool               `json:"abandoned,omitempty"`
	Phases       []PhaseSummary     `json:"phases"`
	Axes         []AxisSummary      `json:"axes"`
	Strengths    []Finding          `json:"strengths"`
	Weaknesses   []Finding          `json:"weaknesses"`
	NextSteps    []string           `json:"next_steps"`
	Observations []string           `json:"observations,omitempty"`
	Reflection   Reflection         `json:"reflection"`
	Provenance   map[Provenance]int `json:"provenance"`
	Answered     int                `json:"answered"`
	Skipped      int                `json:"skipped"`
}

// Clone returns a deep copy of r. Empty slices stay empty rather than nil.
func (r *FeedbackReport) Clone() *FeedbackReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Phases = cloneSlice(r.Phases)
	out.Axes = cloneSlice(r.Axes)
	out.Strengths = cloneSlice(r.Strengths)
	out.Weaknesses = cloneSlice(r.Weaknesses)
	out.NextSteps = cloneSlice(r.NextSteps)
	out.Observations = cloneSlice(r.Observations)
	if r.Provenance != nil {
		out.Provenance = make(map[Provenance]int, len(r.Provenance))
		for k, v := range r.Provenance {
			out.Provenance[k] = v
		}
	}
	return &out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
