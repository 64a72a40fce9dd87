package state

import (
	"time"

	"graphlens/internal/output"
	"graphlens/internal/session"
)

// Focus is the widget receiving key input.
type Focus int

const (
	FocusView   Focus = iota
	FocusSearch       // canvas search box
	FocusFilter       // table filter box
)

// AppState holds the renderer-side state around one session: what the
// session does not own.
type AppState struct {
	Session *session.Session

	// Cursor is the highlighted line of the canvas list or table.
	Cursor  int
	ScrollY int
	Focus   Focus

	// TableID is the active table tab, chosen when the view becomes ready.
	TableID string
	Filter  string

	// Err is the last rejected action, cleared by the next accepted one.
	Err        error
	LastUpdate time.Time
}

// Tables groups the current view into tables.
func (s AppState) Tables() output.TableSet {
	g := s.Session.Graph()
	return output.BuildTables(g.Nodes, g.Relationships)
}

// Table is the active table with the filter applied.
func (s AppState) Table() output.Table {
	set := s.Tables()
	t := set.ByID(s.TableID)
	if t == nil {
		t = set.ByID(set.DefaultID())
	}
	return t.Filter(s.Filter)
}
