package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

func testReport() *entities.DiligenceReport {
	return &entities.DiligenceReport{
		ExecutiveSummary: entities.ExecutiveSummary{TopRisks: []entities.RiskItem{
			{Title: "Change of control", Severity: entities.SeverityHigh, Impact: "Termination right."},
			{Title: "Indemnity cap", Severity: entities.SeverityMedium, Remediable: true},
		}},
		DetailedFindings:    []entities.DetailedFinding{{Risk: "Change of control", Reasoning: "Carve-out removed."}},
		AmendmentResolution: []entities.AmendmentResolution{{Contract: "Acme MSA", FinalPosition: "5 years"}},
		QuestionsForCounsel: []string{"Was consent obtained?"},
	}
}

// plainModel skips glamour so assertions can match raw Markdown.
func plainModel(t *testing.T) Model {
	t.Helper()
	m := New(testReport())
	m.render = func(md string, _ int) (string, error) { return md, nil }
	clear(m.cache)
	m.resize(120, 40)
	return m
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_StartsOnSummary(t *testing.T) {
	m := plainModel(t)
	assert.Equal(t, entities.TabSummary, m.ActiveTab())
	assert.Contains(t, m.View(), "Change of control")
	assert.Contains(t, m.View(), "1 Critical")
	assert.Contains(t, m.View(), "1 Material")
	assert.Contains(t, m.View(), "0 Minor")
}

func TestModel_TabNavigation(t *testing.T) {
	m := plainModel(t)

	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, entities.TabDetailed, m.ActiveTab())
	assert.Contains(t, m.View(), "Carve-out removed.")

	m, _ = update(t, m, key(tea.KeyRight))
	assert.Equal(t, entities.TabAmendments, m.ActiveTab())

	m, _ = update(t, m, key(tea.KeyShiftTab))
	assert.Equal(t, entities.TabDetailed, m.ActiveTab())

	m, _ = update(t, m, key(tea.KeyLeft))
	m, _ = update(t, m, key(tea.KeyLeft))
	assert.Equal(t, entities.TabQuestions, m.ActiveTab(), "left wraps around")
	assert.Contains(t, m.View(), "1. Was consent obtained?")

	m, _ = update(t, m, runes("3"))
	assert.Equal(t, entities.TabAmendments, m.ActiveTab())
	assert.Contains(t, m.View(), "Acme MSA")

	m, _ = update(t, m, key(tea.KeyTab))
	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, entities.TabSummary, m.ActiveTab(), "tab wraps around")
}

func TestModel_Quit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), key(tea.KeyCtrlC)} {
		m := plainModel(t)
		_, cmd := update(t, m, msg)
		require.NotNil(t, cmd, msg.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_Scroll(t *testing.T) {
	m := New(testReport())
	long := strings.Repeat("line\n", 200)
	m.render = func(string, int) (string, error) { return long, nil }
	clear(m.cache)
	m.resize(80, 20)

	assert.True(t, m.viewport.AtTop())
	m, _ = update(t, m, key(tea.KeyPgDown))
	assert.False(t, m.viewport.AtTop())

	// switching tabs scrolls back to the top
	m, _ = update(t, m, runes("2"))
	assert.True(t, m.viewport.AtTop())
}

func TestModel_WindowSize(t *testing.T) {
	m := plainModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 25})
	assert.Equal(t, 60, m.viewport.Width)
	assert.Less(t, m.viewport.Height, 25)
	assert.Positive(t, m.viewport.Height)
}

func TestModel_GlamourRendering(t *testing.T) {
	m := New(testReport())
	view := m.viewport.View()
	assert.Contains(t, view, "Executive Summary")
	assert.Contains(t, view, "Change of control")
}
