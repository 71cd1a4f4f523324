// Package render turns feedback reports into text, JSON or YAML documents.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-coach/internal/interview"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "text", "json" and "yaml" ("yml" is an alias).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Write renders rep to w in the requested format.
func Write(w io.Writer, rep *interview.FeedbackReport, format Format) error {
	if rep == nil {
		return fmt.Errorf("render report: nil report")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText, "":
		data = []byte(Text(rep))
	case FormatJSON:
		data, err = JSON(rep)
	case FormatYAML:
		data, err = YAML(rep)
	default:
		return fmt.Errorf("render report: unknown format %q", format)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// JSON returns the indented JSON form of rep terminated by a newline.
func JSON(rep *interview.FeedbackReport) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML returns rep as a YAML document. Field names follow the JSON tags.
func YAML(rep *interview.FeedbackReport) ([]byte, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("convert report to yaml: %w", err)
	}
	clearStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// clearStyle drops the flow style yaml keeps from the JSON source.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// Text returns a human readable markdown summary of rep.
func Text(rep *interview.FeedbackReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Excel Skills Interview Report")
	line("")
	line("**Session ID:** %s", rep.SessionID)
	line("**Questions Answered:** %d", rep.Answered)
	if rep.Skipped > 0 {
		line("**Questions Skipped:** %d", rep.Skipped)
	}
	line("**Completeness:** %s", rep.Completeness)
	line("")
	line("## Overall Score: %.0f/100", rep.OverallScore)
	line("")

	if len(rep.Phases) > 0 {
		line("## Phase Scores")
		line("")
		for _, p := range rep.Phases {
			line("**%s:** %.0f/100 (%d answered)", title(string(p.Phase)), p.Score, p.Answered)
		}
		line("")
	}

	if len(rep.Axes) > 0 {
		line("## Score Breakdown")
		line("")
		for _, a := range rep.Axes {
			line("**%s:** %.1f/5.0 (%s)", title(string(a.Axis)), a.Mean, strings.ReplaceAll(string(a.Bucket), "_", " "))
		}
		line("")
	}

	findings := func(header string, items []interview.Finding) {
		if len(items) == 0 {
			return
		}
		line("## %s", header)
		line("")
		for _, f := range items {
			if f.Phase != "" {
				line("- %s: %.0f/100, mostly in %s", title(string(f.Axis)), f.Percentile, title(string(f.Phase)))
				continue
			}
			line("- %s: %.0f/100", title(string(f.Axis)), f.Percentile)
		}
		line("")
	}
	findings("Strengths", rep.Strengths)
	findings("Areas for Improvement", rep.Weaknesses)

	list := func(header string, items []string) {
		if len(items) == 0 {
			return
		}
		line("## %s", header)
		line("")
		for _, item := range items {
			line("- %s", item)
		}
		line("")
	}
	list("Actionable Advice", rep.NextSteps)
	list("Observations", rep.Observations)

	if r := rep.Reflection; r != (interview.Reflection{}) {
		line("## Self Assessment")
		line("")
		for _, field := range []struct{ name, value string }{
			{"Confidence", r.Confidence},
			{"Strengths", r.Strengths},
			{"Weaknesses", r.Weaknesses},
			{"Improvement plan", r.ImprovementPlan},
		} {
			if field.value != "" {
				line("*%s:* %s", field.name, field.value)
			}
		}
		line("")
	}

	line("---")
	line("")
	line("*For detailed analysis, view the JSON report.*")
	return b.String()
}

// title turns snake_case identifiers into "Snake Case".
func title(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		if w == "qna" {
			words[i] = "Q&A"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
