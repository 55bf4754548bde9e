package browseui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/report"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

func sampleReport(t *testing.T) report.Report {
	t.Helper()
	records := []model.AttemptRecord{
		{ID: 1, Params: model.Params{2, 2, 2, 2, 2}, Attempts: 2, Level: 2},
		{ID: 2, Params: model.Params{4, 4, 4, 4, 4}, Attempts: 2, Level: 2},
		{ID: 3, Params: model.Params{9, 9, 9, 9, 9}, Attempts: 6, Level: 2},
		{ID: 4, Params: model.Params{1, 1, 1, 1, 1}, Attempts: 0, Level: 3},
	}
	table, _, err := tuning.Build(records, model.DefaultRanges())
	require.NoError(t, err)
	curve := model.Curve{2: 2, 3: 4}
	outcomes := tuning.ClassifyAll(records, curve, table)
	return report.Report{
		Curve:    curve,
		Ranges:   model.DefaultRanges(),
		Table:    table,
		Outcomes: outcomes,
		Summary:  tuning.Summarize(outcomes),
	}
}

func sized(t *testing.T, m *Model) *Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(*Model)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestViewEmptyBeforeResize(t *testing.T) {
	m := NewModel(sampleReport(t))
	require.Empty(t, m.View())
}

func TestViewFitsWindow(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	lines := strings.Split(m.View(), "\n")
	require.Len(t, lines, 30)
	require.Contains(t, m.View(), "Saw-Tooth Curve")
}

func TestTabNavigationWraps(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, tabRejected, m.activeTab)
	m.Update(key('h'))
	require.Equal(t, tabDecisions, m.activeTab)
	require.Contains(t, m.View(), "ABOVE_CURVE")
	m.Update(key('l'))
	m.Update(key('l'))
	require.Equal(t, tabCurve, m.activeTab)
	m.Update(key('l'))
	require.Equal(t, tabCentroids, m.activeTab)
	require.Contains(t, m.View(), "3 of 110 cells populated")
}

func TestDecisionFilterCycles(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	m.moveTab(2)
	require.Len(t, m.decisions.Rows(), 4)

	m.Update(key('f'))
	require.Equal(t, filterOn, m.filter)
	require.Len(t, m.decisions.Rows(), 2)

	m.Update(key('f'))
	m.Update(key('f'))
	require.Equal(t, filterAbove, m.filter)
	rows := m.decisions.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "3", rows[0][0])
	require.Equal(t, "3 3 3 3 3", rows[0][5])
	require.Equal(t, "centroid (2,2)", rows[0][6])

	m.Update(key('f'))
	require.Equal(t, filterFailed, m.filter)
	require.Empty(t, m.decisions.Rows())

	m.Update(key('f'))
	require.Equal(t, filterAll, m.filter)
}

func TestCentroidsToggleEmptyCells(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	m.moveTab(1)
	before := m.viewports[tabCentroids].TotalLineCount()
	m.Update(key('a'))
	require.True(t, m.showEmptyCells)
	require.Greater(t, m.viewports[tabCentroids].TotalLineCount(), before)
}

func TestQuit(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	_, cmd := m.Update(key('q'))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func TestRejectedTabListsRejectedInput(t *testing.T) {
	rep := sampleReport(t)
	rep.Malformed = []*dataset.MalformedRecordError{{Line: 2, Text: "x", Reason: "expected 9 fields, got 1"}}
	_, rejected, err := tuning.Build([]model.AttemptRecord{{ID: 3, Attempts: 50, Level: 2}}, model.DefaultRanges())
	require.NoError(t, err)
	rep.Rejected = rejected

	m := sized(t, NewModel(rep))
	require.Contains(t, m.View(), "Rejected (2)")
	require.Contains(t, m.View(), "rejected=2")
	m.moveTab(-1)
	require.Equal(t, tabRejected, m.activeTab)
	view := m.View()
	require.Contains(t, view, "line 2")
	require.Contains(t, view, "record 3")
}

func TestRejectedTabEmpty(t *testing.T) {
	m := sized(t, NewModel(sampleReport(t)))
	m.moveTab(-1)
	require.Contains(t, m.View(), "No rejected input.")
}
