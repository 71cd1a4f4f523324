package report

import "github.com/spigell/interview-coach/internal/interview"

type topicKey struct {
	phase interview.Phase
	axis  interview.Axis
}

var phaseTopics = map[topicKey]string{
	{interview.PhaseAdaptiveQnA, interview.AxisCorrectness}:           "core formulas: SUM, AVERAGE, COUNT and IF",
	{interview.PhaseAdaptiveQnA, interview.AxisExplanation}:           "explaining formula logic step by step",
	{interview.PhaseAdaptiveQnA, interview.AxisExcelSpecificity}:      "lookup functions: VLOOKUP, XLOOKUP and INDEX/MATCH",
	{interview.PhaseAdaptiveQnA, interview.AxisDifficultyConsistency}: "advanced formulas: dynamic arrays, LET and SUMPRODUCT",
	{interview.PhaseScenario, interview.AxisProblemSolving}:           "structuring analyses with pivot tables and dashboards",
	{interview.PhaseScenario, interview.AxisRealism}:                  "cleaning and validating real-world datasets",
	{interview.PhaseScenario, interview.AxisExcelSpecificity}:         "Power Query / advanced lookups",
	{interview.PhaseScenario, interview.AxisExplanation}:              "presenting an analysis plan to stakeholders",
	{interview.PhaseReflection, interview.AxisSelfAwareness}:          "self-assessment against an Excel skills matrix",
	{interview.PhaseReflection, interview.AxisRealism}:                "building a realistic weekly practice plan",
	{interview.PhaseReflection, interview.AxisExplanation}:            "articulating your Excel experience with concrete examples",
}

var axisTopics = map[interview.Axis]string{
	interview.AxisCorrectness:           "core formulas and functions",
	interview.AxisExplanation:           "explaining your approach clearly",
	interview.AxisExcelSpecificity:      "naming the exact Excel features you would use",
	interview.AxisDifficultyConsistency: "advanced Excel functions",
	interview.AxisProblemSolving:        "breaking business problems into Excel steps",
	interview.AxisRealism:               "practical data preparation",
	interview.AxisSelfAwareness:         "honest self-assessment",
}

// fallbackSteps are recommended when no axis is weak.
var fallbackSteps = []string{
	"Practice basic Excel formulas like SUM, AVERAGE, and COUNT",
	"Learn VLOOKUP and INDEX/MATCH functions for data lookup",
	"Explore pivot tables for data summarization",
	"Study Excel's data analysis and visualization features",
}

// Topic maps an axis that scored weakest in phase to a recommended study topic.
func Topic(phase interview.Phase, axis interview.Axis) string {
	if topic, ok := phaseTopics[topicKey{phase, axis}]; ok {
		return topic
	}
	if topic, ok := axisTopics[axis]; ok {
		return topic
	}
	return string(axis)
}
