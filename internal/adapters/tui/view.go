package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.Viewport.Height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.moduleList(),
			m.detailPane(),
		),
		footerStyle.Render("↑/↓ select • q quit"),
	)
}

func (m Model) moduleList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("MODULES (%d)", len(m.Modules))) + "\n\n")

	end := len(m.Modules)
	if m.ListHeight > 0 {
		end = min(end, m.ListOffset+m.ListHeight)
	}
	for i := m.ListOffset; i < end; i++ {
		node := m.Modules[i]

		var style lipgloss.Style
		var icon string
		switch {
		case node.Depth == 0:
			style = moduleRootStyle
			icon = "●"
		case node.Incoming == 0:
			style = moduleOrphanStyle
			icon = "◌"
		default:
			style = moduleStyle
			icon = "○"
		}

		line := fmt.Sprintf("%s %s", icon, node.Identifier)
		if i == m.SelectedIdx {
			s.WriteString(selectedStyle.Render("> "+line) + "\n")
			continue
		}
		s.WriteString(style.Render("  "+line) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m Model) detailPane() string {
	header := titleStyle.Render(m.Title)
	if len(m.Modules) > 0 {
		header = titleStyle.Render(m.Title + ": " + m.Modules[m.SelectedIdx].Identifier)
	}

	return detailStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Viewport.View(),
		),
	)
}
