package interview

import "fmt"

// Phase is one stage of the fixed interview sequence.
type Phase string

const (
	PhaseIntro       Phase = "intro"
	PhaseAdaptiveQnA Phase = "adaptive_qna"
	PhaseScenario    Phase = "scenario"
	PhaseReflection  Phase = "reflection"
	PhaseClosing     Phase = "closing"
)

// Phases lists every phase in canonical order. CLOSING is terminal.
var Phases = []Phase{PhaseIntro, PhaseAdaptiveQnA, PhaseScenario, PhaseReflection, PhaseClosing}

// Index returns the position of the phase in the canonical order or -1.
func (p Phase) Index() int {
	for i, candidate := range Phases {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the canonical phases.
func (p Phase) Valid() bool { return p.Index() >= 0 }

// Terminal reports whether p is CLOSING.
func (p Phase) Terminal() bool { return p == PhaseClosing }

// Next returns the phase that strictly follows p.
func (p Phase) Next() (Phase, bool) {
	idx := p.Index()
	if idx < 0 || idx+1 >= len(Phases) {
		return "", false
	}
	return Phases[idx+1], true
}

// Scored reports whether answers given in p contribute to the rubric totals.
func (p Phase) Scored() bool {
	return p == PhaseAdaptiveQnA || p == PhaseScenario || p == PhaseReflection
}

// ParsePhase converts a textual phase name into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Transition records one phase change.
type Transition struct {
	From   Phase  `json:"from"`
	To     Phase  `json:"to"`
	Forced bool   `json:"forced,omitempty"`
	Reason string `json:"reason,omitempty"`
}
