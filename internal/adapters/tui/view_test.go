package tui_test

import (
	"testing"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/stretchr/testify/assert"

	"go.trai.ch/stow/internal/adapters/tui"
)

func TestView_Initialization(t *testing.T) {
	m := tui.Model{
		Viewport: viewport.Model{Height: 0},
	}
	assert.Contains(t, m.View(), "Initializing...")
}

func TestView_ModuleList(t *testing.T) {
	m := tui.NewModel("graph", modules())
	m.Viewport.Width = 60
	m.Viewport.Height = 20
	m.ListHeight = 20

	view := m.View()
	assert.Contains(t, view, "MODULES (3)")
	assert.Contains(t, view, "> ● ./src/a.js")
	assert.Contains(t, view, "○ ./src/b.js")
	assert.Contains(t, view, "graph: ./src/a.js")
	assert.Contains(t, view, "q quit")
}

func TestView_WindowedList(t *testing.T) {
	m := tui.NewModel("graph", modules())
	m.Viewport.Width = 60
	m.Viewport.Height = 2
	m.ListHeight = 1
	m.SelectedIdx = 2
	m.ListOffset = 2

	view := m.View()
	assert.Contains(t, view, "./src/c.js")
	assert.NotContains(t, view, "○ ./src/b.js")
}
