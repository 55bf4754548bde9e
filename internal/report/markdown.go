package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "|", "\\|")

// Markdown builds a markdown document with the summary, the decision table
// and any rejected input.
func Markdown(outcomes []tuning.Outcome, malformed []*dataset.MalformedRecordError, rejected []tuning.Rejection) string {
	s := tuning.Summarize(outcomes)
	var b strings.Builder
	b.WriteString("# Tuning decisions\n\n")
	fmt.Fprintf(&b, "- Records: %d\n", s.Total)
	fmt.Fprintf(&b, "- ON_CURVE: %d\n", s.OnCurve)
	fmt.Fprintf(&b, "- BELOW_CURVE: %d\n", s.BelowCurve)
	fmt.Fprintf(&b, "- ABOVE_CURVE: %d\n", s.AboveCurve)
	if s.NoCentroid > 0 {
		fmt.Fprintf(&b, "- No centroid: %d\n", s.NoCentroid)
	}
	if s.MissingCurve > 0 {
		fmt.Fprintf(&b, "- Missing curve: %d\n", s.MissingCurve)
	}
	b.WriteString("\n| ID | Level | Attempts | Target | Action | P1 | P2 | P3 | P4 | P5 | Note |\n")
	b.WriteString("|---:|---:|---:|---:|---|---:|---:|---:|---:|---:|---|\n")
	for _, o := range outcomes {
		b.WriteString("| " + strings.Join(decisionRow(o), " | ") + " |\n")
	}
	if n := len(malformed) + len(rejected); n > 0 {
		fmt.Fprintf(&b, "\n## Rejected (%d)\n\n", n)
		for _, m := range malformed {
			fmt.Fprintf(&b, "- %s\n", markdownEscaper.Replace(m.Error()))
		}
		for _, r := range rejected {
			fmt.Fprintf(&b, "- %s\n", markdownEscaper.Replace(r.Err.Error()))
		}
	}
	return b.String()
}

// RenderMarkdown renders the markdown report for a terminal. Color styling
// is used only when useColor is set.
func RenderMarkdown(w io.Writer, outcomes []tuning.Outcome, malformed []*dataset.MalformedRecordError, rejected []tuning.Rejection, width int, useColor bool) error {
	style := "notty"
	if useColor {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(Markdown(outcomes, malformed, rejected))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
