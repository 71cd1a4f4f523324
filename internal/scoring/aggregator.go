package scoring

import (
	"fmt"
	"math"

	"github.com/spigell/interview-coach/internal/interview"
)

// Stat summarises the values seen on one axis.
type Stat struct {
	Sum   float64
	Min   float64
	Max   float64
	Count int
}

// Mean returns the arithmetic mean or zero for an empty stat.
func (s Stat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (s *Stat) add(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Sum += v
	s.Count++
}

type phaseTotals struct {
	weighted float64
	answered int
	axes     map[interview.Axis]*Stat
}

// Aggregator keeps running per-phase totals. It is owned by one session and is
// not safe for concurrent use.
type Aggregator struct {
	weights Weights
	seen    map[string]struct{}
	phases  map[interview.Phase]*phaseTotals
}

// NewAggregator returns an empty aggregator using weights.
func NewAggregator(weights Weights) *Aggregator {
	return &Aggregator{
		weights: weights,
		seen:    make(map[string]struct{}),
		phases:  make(map[interview.Phase]*phaseTotals),
	}
}

// Add folds result into the totals of phase. A question can be added once; a
// second call for the same id returns ErrDuplicateResult and changes nothing.
// Results for unscored phases are remembered but not counted.
func (a *Aggregator) Add(phase interview.Phase, questionID string, result interview.RubricResult) error {
	if _, dup := a.seen[questionID]; dup {
		return fmt.Errorf("add result for %s: %w", questionID, interview.ErrDuplicateResult)
	}
	if !result.Scores.InRange() {
		return fmt.Errorf("add result for %s: scores outside [%.0f, %.0f]", questionID, interview.MinScore, interview.MaxScore)
	}
	a.seen[questionID] = struct{}{}

	table := a.weights.Table(phase)
	if table == nil {
		return nil
	}

	totals := a.phases[phase]
	if totals == nil {
		totals = &phaseTotals{axes: make(map[interview.Axis]*Stat)}
		a.phases[phase] = totals
	}
	for _, aw := range table {
		v := result.Scores[aw.Axis]
		totals.weighted += aw.Weight * v
		stat := totals.axes[aw.Axis]
		if stat == nil {
			stat = &Stat{}
			totals.axes[aw.Axis] = stat
		}
		stat.add(v)
	}
	totals.answered++
	return nil
}

// Has reports whether a result for questionID was added.
func (a *Aggregator) Has(questionID string) bool {
	_, ok := a.seen[questionID]
	return ok
}

// Answered returns the number of scored results in phase.
func (a *Aggregator) Answered(phase interview.Phase) int {
	if totals := a.phases[phase]; totals != nil {
		return totals.answered
	}
	return 0
}

// PhaseScore returns the normalized 0..100 score of phase, or false when nothing was scored.
func (a *Aggregator) PhaseScore(phase interview.Phase) (float64, bool) {
	totals := a.phases[phase]
	if totals == nil || totals.answered == 0 {
		return 0, false
	}
	return normalize(totals.weighted, totals.answered), true
}

// OverallScore normalizes the weighted sum of every answered phase against the
// maximum achievable for those phases only. Unanswered phases do not lower it.
func (a *Aggregator) OverallScore() float64 {
	var weighted float64
	var answered int
	for _, totals := range a.phases {
		weighted += totals.weighted
		answered += totals.answered
	}
	if answered == 0 {
		return 0
	}
	return normalize(weighted, answered)
}

// AxisStats merges every phase into one stat per axis.
func (a *Aggregator) AxisStats() map[interview.Axis]Stat {
	out := make(map[interview.Axis]Stat)
	for _, totals := range a.phases {
		for axis, stat := range totals.axes {
			merged := out[axis]
			if merged.Count == 0 || stat.Min < merged.Min {
				merged.Min = stat.Min
			}
			if merged.Count == 0 || stat.Max > merged.Max {
				merged.Max = stat.Max
			}
			merged.Sum += stat.Sum
			merged.Count += stat.Count
			out[axis] = merged
		}
	}
	return out
}

// PhaseAxisStats returns the stats of phase keyed by axis.
func (a *Aggregator) PhaseAxisStats(phase interview.Phase) map[interview.Axis]Stat {
	out := make(map[interview.Axis]Stat)
	if totals := a.phases[phase]; totals != nil {
		for axis, stat := range totals.axes {
			out[axis] = *stat
		}
	}
	return out
}

// FromRecords rebuilds an aggregator from stored records in order.
func FromRecords(weights Weights, records []interview.ResponseRecord) (*Aggregator, error) {
	agg := NewAggregator(weights)
	for _, rec := range records {
		if err := agg.Add(rec.Phase, rec.QuestionID, rec.Result()); err != nil {
			return nil, fmt.Errorf("replay records: %w", err)
		}
	}
	return agg, nil
}

func normalize(weighted float64, answered int) float64 {
	score := weighted / (float64(answered) * interview.MaxScore) * 100
	return math.Max(0, math.Min(100, score))
}
