// Package tui renders a finished diligence report as a tabbed terminal
// dashboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/redline-go/internal/adapters/output"
	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	footerHeight  = 1
)

// Model is the bubbletea model for the report dashboard.
type Model struct {
	report   *entities.DiligenceReport
	counts   entities.SeverityCounts
	active   int
	viewport viewport.Model
	styles   Styles
	width    int
	height   int

	// render turns a Markdown section into terminal output for a width.
	render func(md string, width int) (string, error)
	cache  map[entities.Tab]string
}

// New creates the dashboard for report, opened on the summary tab.
func New(report *entities.DiligenceReport) Model {
	m := Model{
		report:   report,
		counts:   report.Counts(),
		viewport: viewport.New(defaultWidth, defaultHeight),
		styles:   DefaultStyles(),
		render:   RenderMarkdown,
		cache:    make(map[entities.Tab]string),
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// RenderMarkdown renders md for the terminal, wrapped at width.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// Run shows the dashboard until the user quits.
func Run(report *entities.DiligenceReport) error {
	_, err := tea.NewProgram(New(report), tea.WithAltScreen()).Run()
	return err
}

// ActiveTab returns the tab currently shown.
func (m Model) ActiveTab() entities.Tab {
	return entities.Tabs[m.active]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.selectTab((m.active + 1) % len(entities.Tabs))
			return m, nil
		case "shift+tab", "left", "h":
			m.selectTab((m.active + len(entities.Tabs) - 1) % len(entities.Tabs))
			return m, nil
		case "1", "2", "3", "4":
			m.selectTab(int(key[0] - '1'))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) selectTab(i int) {
	if i == m.active || i < 0 || i >= len(entities.Tabs) {
		return
	}
	m.active = i
	m.refresh()
	m.viewport.GotoTop()
}

func (m *Model) resize(w, h int) {
	if w != m.width {
		clear(m.cache)
	}
	m.width, m.height = w, h
	m.viewport.Width = w
	m.viewport.Height = max(h-lipgloss.Height(m.header())-footerHeight, 1)
	m.refresh()
}

func (m *Model) refresh() {
	tab := m.ActiveTab()
	content, ok := m.cache[tab]
	if !ok {
		md := output.MarkdownSection(m.report, tab)
		var err error
		content, err = m.render(md, max(m.width-4, 20))
		if err != nil {
			content = md
		}
		m.cache[tab] = content
	}
	m.viewport.SetContent(content)
}

func (m Model) header() string {
	tabs := make([]string, len(entities.Tabs))
	for i, t := range entities.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Label())
		if i == m.active {
			tabs[i] = m.styles.ActiveTab.Render(label)
		} else {
			tabs[i] = m.styles.Tab.Render(label)
		}
	}

	counts := strings.Join([]string{
		m.styles.High.Render(fmt.Sprintf("%d Critical", m.counts.High)),
		m.styles.Medium.Render(fmt.Sprintf("%d Material", m.counts.Medium)),
		m.styles.Low.Render(fmt.Sprintf("%d Minor", m.counts.Low)),
	}, "  ")

	title := lipgloss.JoinHorizontal(lipgloss.Center, m.styles.Title.Render("RedLineAI"), counts)
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m Model) View() string {
	help := m.styles.Help.Render(fmt.Sprintf(
		"tab/←→/1-4 switch • ↑↓/pgup/pgdn scroll • q quit • %3.0f%%",
		m.viewport.ScrollPercent()*100,
	))
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), help)
}
