package components

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Component is a widget drawn inside a side panel. The page layout resizes
// it whenever the terminal size changes.
type Component interface {
	tea.Model
	Resize(width, height int)
}

var _ Component = (*ChipChart)(nil)
