// Package difficulty retunes the question tier from recent correctness scores.
package difficulty

import (
	"fmt"

	"github.com/spigell/interview-coach/internal/interview"
)

// Config holds the adapter thresholds.
type Config struct {
	Window       int     `mapstructure:"window"`
	EscalateAt   float64 `mapstructure:"escalate-at"`
	DeescalateAt float64 `mapstructure:"deescalate-at"`
}

// DefaultConfig returns window 2, escalate at 4.0, de-escalate at 2.0.
func DefaultConfig() Config {
	return Config{Window: 2, EscalateAt: 4.0, DeescalateAt: 2.0}
}

// Validate rejects windows below one and inverted thresholds.
func (c Config) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("difficulty window must be at least 1, got %d", c.Window)
	}
	if c.DeescalateAt >= c.EscalateAt {
		return fmt.Errorf("deescalate-at (%.2f) must be below escalate-at (%.2f)", c.DeescalateAt, c.EscalateAt)
	}
	if c.EscalateAt < interview.MinScore || c.EscalateAt > interview.MaxScore ||
		c.DeescalateAt < interview.MinScore || c.DeescalateAt > interview.MaxScore {
		return fmt.Errorf("difficulty thresholds must lie in [%.0f, %.0f]", interview.MinScore, interview.MaxScore)
	}
	return nil
}

// Next returns the tier to use after the given correctness history.
// Only the last Window scores count. A shorter history holds the tier.
func Next(current interview.Difficulty, history []float64, cfg Config) interview.Difficulty {
	if cfg.Window < 1 || len(history) < cfg.Window {
		return current
	}
	recent := history[len(history)-cfg.Window:]
	var sum float64
	for _, v := range recent {
		sum += v
	}
	avg := sum / float64(len(recent))

	switch {
	case avg >= cfg.EscalateAt:
		return current.Escalate()
	case avg <= cfg.DeescalateAt:
		return current.Deescalate()
	default:
		return current
	}
}

// CorrectnessHistory extracts ADAPTIVE_QNA correctness scores in record order.
// Skipped records count as zero.
func CorrectnessHistory(records []interview.ResponseRecord) []float64 {
	var out []float64
	for _, rec := range records {
		if rec.Phase != interview.PhaseAdaptiveQnA {
			continue
		}
		if rec.Skipped() {
			out = append(out, 0)
			continue
		}
		out = append(out, rec.Scores[interview.AxisCorrectness])
	}
	return out
}

// Replay reproduces the tier decision taken after every ADAPTIVE_QNA record.
// Element i is the tier in force after the i-th record.
func Replay(start interview.Difficulty, records []interview.ResponseRecord, cfg Config) []interview.Difficulty {
	history := CorrectnessHistory(records)
	out := make([]interview.Difficulty, 0, len(history))
	current := start
	for i := range history {
		current = Next(current, history[:i+1], cfg)
		out = append(out, current)
	}
	return out
}
