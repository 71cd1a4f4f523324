// Package report synthesizes the final feedback from stored session records.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/scoring"
)

const (
	strengthPercentile = 70.0
	weaknessPercentile = 50.0
	maxNextSteps       = 3
)

// Generator builds feedback reports. It makes no scoring decisions of its own.
type Generator struct {
	weights scoring.Weights
}

func NewGenerator(weights scoring.Weights) *Generator {
	return &Generator{weights: weights}
}

// Generate is a pure function of the stored records, reflection payload and
// phase history of state. Calling it twice on the same state yields equal reports.
func (g *Generator) Generate(state *interview.SessionState) (*interview.FeedbackReport, error) {
	if state == nil {
		return nil, fmt.Errorf("generate report: nil session state")
	}

	agg, err := scoring.FromRecords(g.weights, state.Responses)
	if err != nil {
		return nil, fmt.Errorf("generate report for %s: %w", state.ID, err)
	}

	rep := &interview.FeedbackReport{
		SessionID:    state.ID,
		OverallScore: round(agg.OverallScore(), 1),
		Completeness: completeness(state),
		Abandoned:    state.Abandoned,
		Phases:       []interview.PhaseSummary{},
		Axes:         []interview.AxisSummary{},
		Strengths:    []interview.Finding{},
		Weaknesses:   []interview.Finding{},
		Reflection:   state.Reflection,
		Provenance:   map[interview.Provenance]int{},
	}

	for _, rec := range state.Responses {
		rep.Provenance[rec.Provenance]++
		if rec.Skipped() {
			rep.Skipped++
		} else {
			rep.Answered++
		}
	}

	for _, phase := range interview.Phases {
		if score, ok := agg.PhaseScore(phase); ok {
			rep.Phases = append(rep.Phases, interview.PhaseSummary{
				Phase:    phase,
				Score:    round(score, 1),
				Answered: agg.Answered(phase),
			})
		}
	}

	stats := agg.AxisStats()
	for _, axis := range interview.Axes {
		stat, ok := stats[axis]
		if !ok || stat.Count == 0 {
			continue
		}
		percentile := round(stat.Mean()/interview.MaxScore*100, 1)
		rep.Axes = append(rep.Axes, interview.AxisSummary{
			Axis:       axis,
			Mean:       round(stat.Mean(), 2),
			Min:        stat.Min,
			Max:        stat.Max,
			Count:      stat.Count,
			Percentile: percentile,
			Bucket:     interview.BucketFor(percentile),
		})
	}

	rep.Strengths, rep.Weaknesses = g.rank(agg, rep.Axes)
	rep.NextSteps = nextSteps(rep.Weaknesses)
	rep.Observations = observations(state, rep)
	return rep, nil
}

func (g *Generator) rank(agg *scoring.Aggregator, axes []interview.AxisSummary) ([]interview.Finding, []interview.Finding) {
	strengths := []interview.Finding{}
	weaknesses := []interview.Finding{}
	for _, summary := range axes {
		switch {
		case summary.Percentile >= strengthPercentile:
			strengths = append(strengths, interview.Finding{
				Axis:       summary.Axis,
				Phase:      g.extremePhase(agg, summary.Axis, false),
				Percentile: summary.Percentile,
				Bucket:     summary.Bucket,
			})
		case summary.Percentile < weaknessPercentile:
			weaknesses = append(weaknesses, interview.Finding{
				Axis:       summary.Axis,
				Phase:      g.extremePhase(agg, summary.Axis, true),
				Percentile: summary.Percentile,
				Bucket:     summary.Bucket,
			})
		}
	}

	sort.SliceStable(strengths, func(i, j int) bool { return strengths[i].Percentile > strengths[j].Percentile })
	sort.SliceStable(weaknesses, func(i, j int) bool { return weaknesses[i].Percentile < weaknesses[j].Percentile })
	return strengths, weaknesses
}

// extremePhase returns the phase where axis had its lowest (or highest) mean.
// Ties resolve to the earlier phase.
func (g *Generator) extremePhase(agg *scoring.Aggregator, axis interview.Axis, lowest bool) interview.Phase {
	var best interview.Phase
	var bestMean float64
	for _, phase := range interview.Phases {
		stat, ok := agg.PhaseAxisStats(phase)[axis]
		if !ok || stat.Count == 0 {
			continue
		}
		mean := stat.Mean()
		if best == "" || (lowest && mean < bestMean) || (!lowest && mean > bestMean) {
			best, bestMean = phase, mean
		}
	}
	return best
}

func nextSteps(weaknesses []interview.Finding) []string {
	steps := []string{}
	seen := map[string]struct{}{}
	for _, w := range weaknesses {
		topic := Topic(w.Phase, w.Axis)
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		steps = append(steps, fmt.Sprintf("Focus on %s (%s scored %.0f/100 in %s)", topic, w.Axis, w.Percentile, w.Phase))
		if len(steps) == maxNextSteps {
			return steps
		}
	}
	if len(steps) == 0 {
		steps = append(steps, fallbackSteps[:maxNextSteps]...)
	}
	return steps
}

func observations(state *interview.SessionState, rep *interview.FeedbackReport) []string {
	var brief, offTopic int
	for _, rec := range state.Responses {
		if rec.HasFlag(interview.FlagBrief) {
			brief++
		}
		if rec.HasFlag(interview.FlagOffTopic) {
			offTopic++
		}
	}

	var out []string
	if brief > 0 {
		out = append(out, fmt.Sprintf("%d answer(s) were brief; provide more detailed explanations", brief))
	}
	if offTopic > 0 {
		out = append(out, fmt.Sprintf("%d answer(s) drifted away from the Excel question asked", offTopic))
	}
	if rep.Skipped > 0 {
		out = append(out, fmt.Sprintf("%d question(s) were skipped", rep.Skipped))
	}
	if n := rep.Provenance[interview.ProvenanceDegraded]; n > 0 {
		out = append(out, fmt.Sprintf("%d answer(s) were scored without narrative review", n))
	}
	if rep.Abandoned {
		out = append(out, "the session was ended early; scores cover answered phases only")
	} else if rep.Completeness == interview.CompletenessPartial {
		out = append(out, "the report covers an unfinished interview")
	}
	return out
}

func completeness(state *interview.SessionState) interview.Completeness {
	if !state.Terminal || state.Abandoned || state.Phase != interview.PhaseClosing {
		return interview.CompletenessPartial
	}
	done := make(map[interview.Phase]bool, len(state.CompletedPhases))
	for _, p := range state.CompletedPhases {
		done[p] = true
	}
	for _, p := range interview.Phases {
		if !p.Terminal() && !done[p] {
			return interview.CompletenessPartial
		}
	}
	return interview.CompletenessFull
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
