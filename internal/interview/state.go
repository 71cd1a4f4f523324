package interview

import (
	"math"
	"time"
)

// Reflection is the free-text self assessment collected during REFLECTION.
type Reflection struct {
	Confidence      string `json:"confidence,omitempty"`
	Strengths       string `json:"strengths,omitempty"`
	Weaknesses      string `json:"weaknesses,omitempty"`
	ImprovementPlan string `json:"improvement_plan,omitempty"`
}

// Set stores text in the named field. Unknown fields are ignored.
func (r *Reflection) Set(field ReflectionField, text string) {
	switch field {
	case ReflectionConfidence:
		r.Confidence = text
	case ReflectionStrengths:
		r.Strengths = text
	case ReflectionWeaknesses:
		r.Weaknesses = text
	case ReflectionImprovementPlan:
		r.ImprovementPlan = text
	}
}

// Complete reports whether every field has been filled.
func (r Reflection) Complete() bool {
	return r.Confidence != "" && r.Strengths != "" && r.Weaknesses != "" && r.ImprovementPlan != ""
}

// SessionState is owned by the session controller. Callers only ever see copies.
type SessionState struct {
	ID         string           `json:"id"`
	Phase      Phase            `json:"phase"`
	QIndex     int              `json:"q_index"`
	Difficulty Difficulty       `json:"difficulty"`
	Responses  []ResponseRecord `json:"responses"`
	// Retries counts skips per question id.
	Retries    map[string]int `json:"retries,omitempty"`
	Reflection Reflection     `json:"reflection"`
	// PhaseTotals holds the configured question count of every phase.
	PhaseTotals     map[Phase]int   `json:"phase_totals"`
	Pending         string          `json:"pending_question_id,omitempty"`
	Asked           []string        `json:"asked,omitempty"`
	History         []Transition    `json:"history,omitempty"`
	CompletedPhases []Phase         `json:"completed_phases,omitempty"`
	Started         bool            `json:"started"`
	Terminal        bool            `json:"terminal"`
	Abandoned       bool            `json:"abandoned"`
	Report          *FeedbackReport `json:"report,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Closed reports whether the session accepts no more answers.
func (s *SessionState) Closed() bool { return s.Terminal || s.Abandoned }

// Answered reports whether a record already exists for questionID.
func (s *SessionState) Answered(questionID string) bool {
	for _, rec := range s.Responses {
		if rec.QuestionID == questionID {
			return true
		}
	}
	return false
}

// PhaseResponses returns the records produced in phase, in order.
func (s *SessionState) PhaseResponses(phase Phase) []ResponseRecord {
	var out []ResponseRecord
	for _, rec := range s.Responses {
		if rec.Phase == phase {
			out = append(out, rec)
		}
	}
	return out
}

// Progress summarises how far the candidate got.
type Progress struct {
	Phase    Phase   `json:"phase"`
	Answered int     `json:"answered"`
	Skipped  int     `json:"skipped"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// Progress counts records against the configured question totals.
func (s *SessionState) Progress() Progress {
	p := Progress{Phase: s.Phase}
	for _, phase := range Phases {
		p.Total += s.PhaseTotals[phase]
	}
	for _, rec := range s.Responses {
		if rec.Skipped() {
			p.Skipped++
			continue
		}
		p.Answered++
	}
	if p.Total > 0 {
		done := p.Answered + p.Skipped
		if done > p.Total {
			done = p.Total
		}
		p.Percent = math.Round(float64(done)/float64(p.Total)*1000) / 10
	}
	if s.Terminal {
		p.Percent = 100
	}
	return p
}

// Clone returns a deep copy so callers cannot mutate controller state.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Responses != nil {
		out.Responses = make([]ResponseRecord, len(s.Responses))
		for i, rec := range s.Responses {
			out.Responses[i] = rec.Clone()
		}
	}
	if s.Retries != nil {
		out.Retries = make(map[string]int, len(s.Retries))
		for k, v := range s.Retries {
			out.Retries[k] = v
		}
	}
	if s.PhaseTotals != nil {
		out.PhaseTotals = make(map[Phase]int, len(s.PhaseTotals))
		for k, v := range s.PhaseTotals {
			out.PhaseTotals[k] = v
		}
	}
	out.Asked = cloneSlice(s.Asked)
	out.History = cloneSlice(s.History)
	out.CompletedPhases = cloneSlice(s.CompletedPhases)
	out.Report = s.Report.Clone()
	return &out
}
