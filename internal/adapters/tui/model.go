// Package tui provides an interactive browser for a cached module graph.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

const (
	moduleListWidthRatio  = 0.4
	detailPaneBorderWidth = 4
	chromeHeight          = 3
)

// ModuleNode is a single module in the browser list.
type ModuleNode struct {
	Identifier   string
	Kind         string
	Issuer       string
	Depth        uint32
	Dependencies int
	Outgoing     int
	Incoming     int
}

// Model represents the browser state.
type Model struct {
	Title       string
	Modules     []ModuleNode
	Viewport    viewport.Model
	SelectedIdx int
	ListHeight  int
	ListOffset  int
}

// NewModel creates a browser over modules.
func NewModel(title string, modules []ModuleNode) Model {
	m := Model{
		Title:    title,
		Modules:  modules,
		Viewport: viewport.New(0, 0),
	}
	m.refreshDetail()
	return m
}

// Init initializes the model.
//
//nolint:gocritic // hugeParam ignored
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes.
//
//nolint:gocritic // hugeParam ignored
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "home", "g":
			m.move(-len(m.Modules))
		case "end", "G":
			m.move(len(m.Modules))
		}

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * moduleListWidthRatio)
		m.Viewport.Width = msg.Width - listWidth - detailPaneBorderWidth
		m.Viewport.Height = msg.Height - chromeHeight
		m.ListHeight = msg.Height - chromeHeight
		m.clampOffset()
		m.refreshDetail()
	}

	return m, nil
}

func (m *Model) move(delta int) {
	if len(m.Modules) == 0 {
		return
	}
	m.SelectedIdx = min(max(m.SelectedIdx+delta, 0), len(m.Modules)-1)
	m.clampOffset()
	m.refreshDetail()
}

// clampOffset keeps the selected module inside the visible window of the list.
func (m *Model) clampOffset() {
	if m.ListHeight <= 0 {
		m.ListOffset = 0
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	}
	if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) refreshDetail() {
	if len(m.Modules) == 0 {
		m.Viewport.SetContent("No modules cached.")
		return
	}
	m.Viewport.SetContent(WrapDetail(Detail(m.Modules[m.SelectedIdx]), m.Viewport.Width))
}

// Detail renders the fields of a module for the detail pane.
func Detail(n ModuleNode) string {
	var s strings.Builder
	fmt.Fprintf(&s, "identifier    %s\n", n.Identifier)
	fmt.Fprintf(&s, "kind          %s\n", n.Kind)
	if n.Issuer != "" {
		fmt.Fprintf(&s, "issuer        %s\n", n.Issuer)
	}
	fmt.Fprintf(&s, "depth         %d\n", n.Depth)
	fmt.Fprintf(&s, "dependencies  %d\n", n.Dependencies)
	fmt.Fprintf(&s, "outgoing      %d\n", n.Outgoing)
	fmt.Fprintf(&s, "incoming      %d", n.Incoming)
	return s.String()
}

// WrapDetail wraps text to width. A non-positive width leaves text unchanged.
func WrapDetail(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// Run shows the browser until the user quits.
func Run(title string, modules []ModuleNode, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(NewModel(title, modules), opts...).Run()
	return err
}
