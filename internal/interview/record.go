package interview

import "time"

// Screening flags attached to a record.
const (
	FlagBrief    = "brief"
	FlagOffTopic = "off_topic"
	FlagFormula  = "formula"
)

// ResponseRecord is created once per answered or skipped question and never edited.
type ResponseRecord struct {
	Sequence   int        `json:"sequence"`
	QuestionID string     `json:"question_id"`
	Phase      Phase      `json:"phase"`
	Difficulty Difficulty `json:"difficulty"`
	Answer     string     `json:"answer"`
	Timestamp  time.Time  `json:"timestamp"`
	Scores     Scores     `json:"scores"`
	Provenance Provenance `json:"provenance"`
	Rationale  string     `json:"rationale,omitempty"`
	Verified   bool       `json:"verified,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	// Narrative keeps the scorer calls behind the scores for audit.
	Narrative []NarrativeAttempt `json:"narrative,omitempty"`
}

// Skipped reports whether the record stands for a question the candidate skipped.
func (r ResponseRecord) Skipped() bool { return r.Provenance == ProvenanceSkipped }

// HasFlag reports whether screening attached flag to the record.
func (r ResponseRecord) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Result returns the rubric result stored in the record.
func (r ResponseRecord) Result() RubricResult {
	return RubricResult{
		Scores:     r.Scores.Clone(),
		Rationale:  r.Rationale,
		Provenance: r.Provenance,
		Verified:   r.Verified,
		Attempts:   cloneAttempts(r.Narrative),
	}
}

// Clone returns a deep copy of r.
func (r ResponseRecord) Clone() ResponseRecord {
	out := r
	out.Scores = r.Scores.Clone()
	if r.Flags != nil {
		out.Flags = append([]string(nil), r.Flags...)
	}
	out.Narrative = cloneAttempts(r.Narrative)
	return out
}

func cloneAttempts(in []NarrativeAttempt) []NarrativeAttempt {
	if in == nil {
		return nil
	}
	return append([]NarrativeAttempt(nil), in...)
}
