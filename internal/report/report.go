// Package report renders tuning results for humans and machines.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if minVal == maxVal {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := float64(v-minVal) / float64(maxVal-minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderCurve prints the saw-tooth target per level.
func RenderCurve(w io.Writer, curve model.Curve) error {
	levels := curve.Levels()
	if len(levels) == 0 {
		_, err := fmt.Fprintln(w, "Curve is empty.")
		return err
	}
	targets := make([]int, len(levels))
	rows := make([][]string, len(levels))
	for i, level := range levels {
		targets[i] = curve[level]
		rows[i] = []string{strconv.Itoa(level), strconv.Itoa(curve[level])}
	}
	if _, err := fmt.Fprintln(w, "Saw-Tooth Curve"); err != nil {
		return err
	}
	if err := writeLines(w, formatTable([]string{"Level", "Target"}, rows, map[int]bool{0: true, 1: true})); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Shape: [%s]\n\n", Sparkline(targets)); err != nil {
		return err
	}
	return nil
}

// RenderCentroids prints every populated cell. When all is set, empty
// cells are listed too.
func RenderCentroids(w io.Writer, table *tuning.CentroidTable, all bool) error {
	if _, err := fmt.Fprintf(w, "Centroids (%s, %d of %d cells populated)\n",
		table.Ranges(), table.Populated(), len(table.Cells())); err != nil {
		return err
	}
	headers := []string{"Level", "Attempts", "Count", "P1", "P2", "P3", "P4", "P5"}
	var rows [][]string
	for _, cell := range table.Cells() {
		if cell.Count == 0 && !all {
			continue
		}
		row := []string{strconv.Itoa(cell.Level), strconv.Itoa(cell.Attempts), strconv.FormatInt(cell.Count, 10)}
		if cell.Count == 0 {
			row = append(row, "-", "-", "-", "-", "-")
		} else {
			row = append(row, paramCells(cell.Centroid)...)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No populated cells.")
		return err
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderDecisions prints one row per outcome with the parameters to apply.
func RenderDecisions(w io.Writer, outcomes []tuning.Outcome, useColor bool) error {
	if len(outcomes) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Decisions"); err != nil {
		return err
	}
	headers := []string{"ID", "Level", "Attempts", "Target", "Action", "P1", "P2", "P3", "P4", "P5", "Note"}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, decisionRow(o))
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 5: true, 6: true, 7: true, 8: true, 9: true}
	lines := formatTable(headers, rows, rightAlign)
	if useColor {
		for i := 1; i < len(lines); i++ {
			lines[i] = colorizeAction(lines[i], outcomes[i-1])
		}
	}
	if err := writeLines(w, lines); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func decisionRow(o tuning.Outcome) []string {
	d := o.Decision
	row := []string{strconv.Itoa(o.Record.ID), strconv.Itoa(o.Record.Level), strconv.Itoa(o.Record.Attempts)}
	if errors.Is(o.Err, tuning.ErrMissingCurveEntry) {
		row = append(row, "-", "-", "-", "-", "-", "-", "-")
		return append(row, tuning.ErrMissingCurveEntry.Error())
	}
	row = append(row, strconv.Itoa(d.Target), d.Action.String())
	if !d.HasParams {
		row = append(row, "-", "-", "-", "-", "-")
		return append(row, tuning.ErrNoCentroid.Error())
	}
	row = append(row, paramCells(d.Params)...)
	note := "keep"
	if d.FromCentroid {
		note = fmt.Sprintf("centroid (%d,%d)", d.Level, d.Target)
	}
	return append(row, note)
}

// RenderSummary prints action counts and shares.
func RenderSummary(w io.Writer, s tuning.Summary) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records: %d\n", s.Total); err != nil {
		return err
	}
	lines := []struct {
		label string
		n     int
	}{
		{model.OnCurve.String(), s.OnCurve},
		{model.BelowCurve.String(), s.BelowCurve},
		{model.AboveCurve.String(), s.AboveCurve},
		{"No centroid", s.NoCentroid},
		{"Missing curve", s.MissingCurve},
	}
	for _, l := range lines {
		if l.n == 0 && (l.label == "No centroid" || l.label == "Missing curve") {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %d (%.1f%%)\n", l.label, l.n, s.Share(l.n)*100); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRejections lists records left out of the run.
func RenderRejections(w io.Writer, malformed []*dataset.MalformedRecordError, rejected []tuning.Rejection) error {
	if len(malformed) == 0 && len(rejected) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Rejected (%d)\n", len(malformed)+len(rejected)); err != nil {
		return err
	}
	for _, m := range malformed {
		if _, err := fmt.Fprintf(w, "  %v\n", m); err != nil {
			return err
		}
	}
	for _, r := range rejected {
		if _, err := fmt.Fprintf(w, "  %v\n", r.Err); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func paramCells(p model.Params) []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
