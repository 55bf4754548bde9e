// Package browseui provides the Bubble Tea explorer for a tuning run.
package browseui

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/report"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

const (
	tabCurve = iota
	tabCentroids
	tabDecisions
	tabRejected
)

// actionFilter cycles through all outcomes, then each action, then failures.
type actionFilter int

const (
	filterAll actionFilter = iota
	filterOn
	filterBelow
	filterAbove
	filterFailed
	filterCount
)

func (f actionFilter) String() string {
	switch f {
	case filterOn:
		return model.OnCurve.String()
	case filterBelow:
		return model.BelowCurve.String()
	case filterAbove:
		return model.AboveCurve.String()
	case filterFailed:
		return "FAILED"
	default:
		return "all"
	}
}

func (f actionFilter) match(o tuning.Outcome) bool {
	switch f {
	case filterAll:
		return true
	case filterFailed:
		return o.Err != nil
	case filterOn:
		return o.Err == nil && o.Decision.Action == model.OnCurve
	case filterBelow:
		return o.Err == nil && o.Decision.Action == model.BelowCurve
	case filterAbove:
		return o.Err == nil && o.Decision.Action == model.AboveCurve
	default:
		return false
	}
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea explorer.
type Model struct {
	report report.Report

	tabs      []string
	activeTab int
	viewports []viewport.Model
	decisions table.Model

	showEmptyCells bool
	filter         actionFilter

	width  int
	height int
}

// NewModel constructs an explorer over a finished run.
func NewModel(rep report.Report) *Model {
	m := &Model{
		report: rep,
		tabs: []string{"Curve", "Centroids", "Decisions",
			fmt.Sprintf("Rejected (%d)", len(rep.Malformed)+len(rep.Rejected))},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.decisions = buildDecisionTable(m.filteredOutcomes(), 0, 1)
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "a":
			if m.activeTab == tabCentroids {
				m.showEmptyCells = !m.showEmptyCells
				m.renderTabContents()
			}
			return m, nil
		case "f":
			if m.activeTab == tabDecisions {
				m.filter = (m.filter + 1) % filterCount
				m.decisions.SetRows(decisionRows(m.filteredOutcomes()))
				m.decisions.GotoTop()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabDecisions {
				m.decisions.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabDecisions {
				m.decisions.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabDecisions {
				var cmd tea.Cmd
				m.decisions, cmd = m.decisions.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderHelp(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.decisions.SetWidth(m.width)
	m.decisions.SetHeight(max(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabDecisions {
		m.decisions.Focus()
	} else {
		m.decisions.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	s := m.report.Summary
	summary := fmt.Sprintf("Run: %s  records=%d  on=%d  below=%d  above=%d  failed=%d  rejected=%d",
		m.report.Ranges, s.Total, s.OnCurve, s.BelowCurve, s.AboveCurve, s.NoCentroid+s.MissingCurve,
		len(m.report.Malformed)+len(m.report.Rejected))
	if m.activeTab == tabDecisions {
		summary += "  filter=" + m.filter.String()
	}
	return m.renderTabs() + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q"
	switch m.activeTab {
	case tabCentroids:
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Empty cells: a  Quit: q"
	case tabDecisions:
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Filter: f  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabDecisions {
		if len(m.report.Outcomes) == 0 {
			return "No records."
		}
		return tableMutedStyle.Render(m.decisions.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	var curve bytes.Buffer
	if err := report.RenderCurve(&curve, m.report.Curve); err != nil {
		curve.Reset()
		curve.WriteString("Failed to render curve: " + err.Error())
	}
	if err := report.RenderSummary(&curve, m.report.Summary); err != nil {
		curve.WriteString("Failed to render summary: " + err.Error())
	}
	m.viewports[tabCurve].SetContent(curve.String())

	var centroids bytes.Buffer
	if m.report.Table == nil {
		centroids.WriteString("No centroid table.")
	} else if err := report.RenderCentroids(&centroids, m.report.Table, m.showEmptyCells); err != nil {
		centroids.Reset()
		centroids.WriteString("Failed to render centroids: " + err.Error())
	}
	m.viewports[tabCentroids].SetContent(centroids.String())

	var rejected bytes.Buffer
	if len(m.report.Malformed) == 0 && len(m.report.Rejected) == 0 {
		rejected.WriteString("No rejected input.")
	} else if err := report.RenderRejections(&rejected, m.report.Malformed, m.report.Rejected); err != nil {
		rejected.Reset()
		rejected.WriteString("Failed to render rejections: " + err.Error())
	}
	m.viewports[tabRejected].SetContent(rejected.String())
}

func (m *Model) filteredOutcomes() []tuning.Outcome {
	if m.filter == filterAll {
		return m.report.Outcomes
	}
	out := make([]tuning.Outcome, 0, len(m.report.Outcomes))
	for _, o := range m.report.Outcomes {
		if m.filter.match(o) {
			out = append(out, o)
		}
	}
	return out
}

func buildDecisionTable(outcomes []tuning.Outcome, width, height int) table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Level", Width: 5},
		{Title: "Attempts", Width: 8},
		{Title: "Target", Width: 6},
		{Title: "Action", Width: 11},
		{Title: "Params", Width: 24},
		{Title: "Note", Width: 22},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(decisionRows(outcomes)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(decisionTableStyles())
	return t
}

func decisionRows(outcomes []tuning.Outcome) []table.Row {
	rows := make([]table.Row, 0, len(outcomes))
	for _, o := range outcomes {
		d := o.Decision
		row := table.Row{strconv.Itoa(o.Record.ID), strconv.Itoa(o.Record.Level), strconv.Itoa(o.Record.Attempts)}
		switch {
		case errors.Is(o.Err, tuning.ErrMissingCurveEntry):
			row = append(row, "-", "-", "-", tuning.ErrMissingCurveEntry.Error())
		case !d.HasParams:
			row = append(row, strconv.Itoa(d.Target), d.Action.String(), "-", tuning.ErrNoCentroid.Error())
		default:
			note := "keep"
			if d.FromCentroid {
				note = fmt.Sprintf("centroid (%d,%d)", d.Level, d.Target)
			}
			row = append(row, strconv.Itoa(d.Target), d.Action.String(), formatParams(d.Params), note)
		}
		rows = append(rows, row)
	}
	return rows
}

func formatParams(p model.Params) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func decisionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
