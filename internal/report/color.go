package report

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

var (
	onCurveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB760"))
	belowCurveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	aboveCurveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// ActionStyle returns the style used for an outcome's action label.
func ActionStyle(o tuning.Outcome) lipgloss.Style {
	if o.Err != nil {
		return failedStyle
	}
	switch o.Decision.Action {
	case model.OnCurve:
		return onCurveStyle
	case model.BelowCurve:
		return belowCurveStyle
	default:
		return aboveCurveStyle
	}
}

// colorizeAction styles the action label inside an already padded line so
// column widths are unaffected.
func colorizeAction(line string, o tuning.Outcome) string {
	if errors.Is(o.Err, tuning.ErrMissingCurveEntry) {
		return failedStyle.Render(line)
	}
	label := o.Decision.Action.String()
	idx := strings.Index(line, label)
	if idx < 0 {
		return line
	}
	return line[:idx] + ActionStyle(o).Render(label) + line[idx+len(label):]
}
