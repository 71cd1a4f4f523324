package evaluation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/interview-coach/internal/interview"
)

var (
	functionCall = regexp.MustCompile(`\b([A-Z][A-Z0-9.]*)\(`)
	functionName = regexp.MustCompile(`\b[A-Z][A-Z0-9.]*\b`)
)

const (
	// correctnessExact is awarded for a complete formula using an accepted function.
	correctnessExact = 5.0
	// correctnessLoose is awarded when the right function is called outside a well-formed formula.
	correctnessLoose = 4.0
	// correctnessMentioned is awarded when prose names the right function without calling it.
	correctnessMentioned = 3.0
	// correctnessRefuted is awarded when a formula answer calls functions but none is accepted.
	correctnessRefuted = 1.0
)

// RuleVerdict is the deterministic check of a formula answer.
type RuleVerdict struct {
	// Applicable is false for questions the checker cannot judge.
	Applicable bool
	// Verified is true when the answer was matched or refuted against the descriptor.
	Verified    bool
	Correctness float64
	// Matched is the accepted alternative the answer satisfied, if any.
	Matched string
	Reason  string
}

// CheckFormula compares answer with the expected-answer descriptor of q.
// Matching ignores case, and whitespace inside a bare formula. Each accepted alternative such as
// "INDEX/MATCH" is satisfied when the answer uses every function it lists.
// Only an answer that is itself a formula (starts with "=") can be refuted; prose
// that never names an accepted function is left unverified for the narrative scorer.
func CheckFormula(q interview.Question, answer string) RuleVerdict {
	if !q.Checkable() {
		return RuleVerdict{Reason: "no formula descriptor"}
	}

	normalized := normalizeFormula(answer)
	if strings.HasPrefix(normalized, "=") {
		return checkFormulaAnswer(q, normalized)
	}

	source := strings.ToUpper(answer)
	if required, ok := accepted(q, extractCalls(source)); ok {
		return matched(required, correctnessLoose, "calls")
	}
	if required, ok := accepted(q, extractNames(source)); ok {
		return matched(required, correctnessMentioned, "mentions")
	}
	return RuleVerdict{Applicable: true, Reason: "prose names no accepted function"}
}

func checkFormulaAnswer(q interview.Question, normalized string) RuleVerdict {
	calls := extractCalls(normalized)
	if len(calls) == 0 {
		return RuleVerdict{Applicable: true, Reason: "no function call found"}
	}
	if required, ok := accepted(q, calls); ok {
		if wellFormed(normalized) {
			return matched(required, correctnessExact, "uses")
		}
		return matched(required, correctnessLoose, "uses")
	}
	return RuleVerdict{
		Applicable:  true,
		Verified:    true,
		Correctness: correctnessRefuted,
		Reason: fmt.Sprintf("calls %s, expected one of %s",
			strings.Join(sortedKeys(calls), ", "), strings.Join(q.Expected.AcceptedFunctions, ", ")),
	}
}

// accepted returns the first accepted alternative fully covered by names.
func accepted(q interview.Question, names map[string]struct{}) ([]string, bool) {
	for _, alternative := range q.Expected.AcceptedFunctions {
		required := splitAlternative(alternative)
		if len(required) > 0 && containsAll(names, required) {
			return required, true
		}
	}
	return nil, false
}

func matched(required []string, correctness float64, verb string) RuleVerdict {
	name := strings.Join(required, "/")
	return RuleVerdict{
		Applicable:  true,
		Verified:    true,
		Correctness: correctness,
		Matched:     name,
		Reason:      fmt.Sprintf("%s accepted %s", verb, name),
	}
}

func normalizeFormula(answer string) string {
	return strings.ToUpper(strings.Join(strings.Fields(answer), ""))
}

func extractCalls(upper string) map[string]struct{} {
	calls := make(map[string]struct{})
	for _, match := range functionCall.FindAllStringSubmatch(upper, -1) {
		calls[match[1]] = struct{}{}
	}
	return calls
}

func extractNames(upper string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, name := range functionName.FindAllString(upper, -1) {
		names[name] = struct{}{}
	}
	return names
}

func splitAlternative(alternative string) []string {
	var out []string
	for _, part := range strings.Split(alternative, "/") {
		if name := strings.ToUpper(strings.TrimSpace(part)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func containsAll(calls map[string]struct{}, required []string) bool {
	for _, name := range required {
		if _, ok := calls[name]; !ok {
			return false
		}
	}
	return true
}

// wellFormed reports whether the normalized answer is a single formula with balanced parentheses.
func wellFormed(normalized string) bool {
	if !strings.HasPrefix(normalized, "=") {
		return false
	}
	depth := 0
	for _, r := range normalized {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
