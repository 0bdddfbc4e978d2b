package tui

import "github.com/charmbracelet/lipgloss"

// Brand and severity colors used by the dashboard header.
var (
	Brand   = lipgloss.Color("#FF2525")
	Muted   = lipgloss.Color("#64748b")
	Surface = lipgloss.Color("#0f172a")
	High    = lipgloss.Color("#e53935")
	Medium  = lipgloss.Color("#FFC107")
	Low     = lipgloss.Color("#94a3b8")
)

// Styles holds the lipgloss styles for the dashboard chrome.
type Styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	High      lipgloss.Style
	Medium    lipgloss.Style
	Low       lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns the dashboard styles.
func DefaultStyles() Styles {
	tab := lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted)

	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(Brand).MarginRight(1),
		Tab:   tab,
		ActiveTab: tab.
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(Brand).
			BorderForeground(Brand),
		High:   lipgloss.NewStyle().Bold(true).Foreground(High),
		Medium: lipgloss.NewStyle().Bold(true).Foreground(Medium),
		Low:    lipgloss.NewStyle().Foreground(Low),
		Help:   lipgloss.NewStyle().Foreground(Muted),
	}
}
