package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/interview-coach/internal/interview"
)

func formulaQuestion(accepted ...string) interview.Question {
	return interview.Question{
		ID:       "q",
		Type:     interview.TypeFormula,
		Phase:    interview.PhaseAdaptiveQnA,
		Expected: &interview.ExpectedAnswer{AcceptedFunctions: accepted},
	}
}

func TestCheckFormula(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		question    interview.Question
		answer      string
		applicable  bool
		verified    bool
		correctness float64
	}{
		{"exact sum", formulaQuestion("SUM"), "=SUM(A1:A10)", true, true, 5},
		{"case and spaces", formulaQuestion("SUM"), "  = sum ( a1 : a10 ) ", true, true, 5},
		{"wrong function", formulaQuestion("SUM"), "=AVERAGE(A1:A10)", true, true, 1},
		{"function inside prose", formulaQuestion("SUM"), "I would type SUM(A1:A10) in a cell", true, true, 4},
		{"unbalanced", formulaQuestion("SUM"), "=SUM(A1:A10", true, true, 4},
		{"mention in prose", formulaQuestion("SUM"), "I'd add them up with the sum button", true, true, 3},
		{"prose naming another function first", formulaQuestion("SUM"), "Not AVERAGE(), I would total them with SUM over A1 to A10", true, true, 3},
		{"prose with only other functions", formulaQuestion("SUM"), "I would try AVERAGE(A1:A10) and compare", true, false, 0},
		{"prose without function names", formulaQuestion("VLOOKUP"), "I would look the price up in the other sheet", true, false, 0},
		{"formula without call", formulaQuestion("SUM"), "=A1+A2+A3", true, false, 0},
		{"prose parenthesis is not a call", formulaQuestion("SUM"), "use the total (A1 to A10)", true, false, 0},
		{"alternative", formulaQuestion("VLOOKUP", "INDEX/MATCH"), "=INDEX(C:C, MATCH(E2, A:A, 0))", true, true, 5},
		{"partial alternative", formulaQuestion("INDEX/MATCH"), "=INDEX(C:C, 3)", true, true, 1},
		{"nested accepted", formulaQuestion("VLOOKUP"), `=IFERROR(VLOOKUP(E2, A:C, 3, FALSE), "missing")`, true, true, 5},
		{"conceptual question", interview.Question{Type: interview.TypeConceptual}, "=SUM(A1)", false, false, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CheckFormula(tt.question, tt.answer)
			assert.Equal(t, tt.applicable, got.Applicable, "applicable")
			assert.Equal(t, tt.verified, got.Verified, "verified")
			assert.Equal(t, tt.correctness, got.Correctness, "correctness")
		})
	}
}
