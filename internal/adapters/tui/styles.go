package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Private brand colors.
	colorIris  = lipgloss.Color("#5D3FD3")
	colorSlate = lipgloss.Color("#667085")
	colorWhite = lipgloss.Color("#FFFFFF")

	// Pane Styles.
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorSlate).
			MarginRight(1).
			PaddingRight(1)

	detailStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	// Module Styles.
	moduleRootStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Bold(true)

	moduleStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	moduleOrphanStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")) // Orange

	// Selection Style.
	selectedStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Bold(true)

	// Header Styles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(colorIris).
			Foreground(colorWhite)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			Faint(true)
)
