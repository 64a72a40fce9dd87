package views

import (
	"graphlens/ui/tui/state"
)

// ViewProps carries what the controller renders outside the session: widget
// output and layout.
type ViewProps struct {
	Width, Height int

	TabCursor  int     // index of the active bucket tab
	AnimCursor float64 // spring position easing towards TabCursor

	SpinnerView string
	SearchView  string // canvas search box
	FilterView  string // table filter box
	ChartView   string // label chip chart

	ScrollY int // first visible list line
}

// View renders one region of the page.
type View interface {
	Render(s state.AppState, props ViewProps) string
}
