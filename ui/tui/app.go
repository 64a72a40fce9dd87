package tui

import (
	"context"
	"time"

	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/output"
	"graphlens/internal/session"
	"graphlens/ui/tui/components"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	zone "github.com/lrstanley/bubblezone"
)

// DefaultFetchTimeout bounds one fetch when Config leaves it unset.
const DefaultFetchTimeout = 30 * time.Second

// Config wires the TUI to its graph source.
type Config struct {
	Source session.Source
	Scope  graph.Scope

	// Preloaded, when set, opens a view over these records instead of
	// fetching Scope.
	Preloaded *graph.RawGraph

	Debounce     time.Duration
	FetchTimeout time.Duration
	Logger       *log.Logger
	Session      []session.Option
}

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	cfg     Config
	log     *log.Logger
	state   state.AppState
	spinner spinner.Model
	search  textinput.Model
	filter  textinput.Model
	chart   *components.ChipChart

	// initial is the fetch issued by Init.
	initial   *session.Request
	searchSeq int

	tabCursor  int
	animCursor float64
	velocity   float64 // Physics velocity
	spring     harmonica.Spring
	quitting   bool
	width      int
	height     int
}

// Messages
type AnimateMsg time.Time

// FetchedMsg carries a finished fetch back to the update loop.
type FetchedMsg struct {
	Response session.Response
}

// SearchMsg fires when the search box has been idle for the debounce delay.
// Only the message carrying the latest Seq is applied.
type SearchMsg struct {
	Seq   int
	Query string
}

func InitialModel(cfg Config) MainModel {
	if cfg.Debounce <= 0 {
		cfg.Debounce = session.DefaultDebounce
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "id, caption or id property"
	search.CharLimit = 120

	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.Placeholder = "any cell or property"
	filter.CharLimit = 120

	opts := append([]session.Option{session.WithLogger(cfg.Logger)}, cfg.Session...)

	m := MainModel{
		cfg:     cfg,
		log:     cfg.Logger,
		spinner: s,
		search:  search,
		filter:  filter,
		chart:   components.NewChipChart(30, 8),
		// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
		spring: harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9),
		state: state.AppState{
			Session: session.New(opts...),
		},
	}
	if req, ok := m.open(); ok {
		m.initial = &req
	}
	return m
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	cmds := []tea.Cmd{m.spinner.Tick, animateCmd()}
	if m.initial != nil {
		cmds = append(cmds, m.fetchCmd(*m.initial))
		m.initial = nil
	}
	return tea.Batch(cmds...)
}

// Commands
func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func (m *MainModel) fetchCmd(req session.Request) tea.Cmd {
	src, timeout := m.cfg.Source, m.cfg.FetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return FetchedMsg{Response: session.Fetch(ctx, src, req)}
	}
}

func (m *MainModel) debounceCmd(query string) tea.Cmd {
	m.searchSeq++
	seq := m.searchSeq
	return tea.Tick(m.cfg.Debounce, func(time.Time) tea.Msg {
		return SearchMsg{Seq: seq, Query: query}
	})
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case FetchedMsg:
		return m.handleFetchedMsg(msg)

	case SearchMsg:
		return m.handleSearchMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state.Focus {
	case state.FocusSearch:
		return m.handleSearchKey(msg)
	case state.FocusFilter:
		return m.handleFilterKey(msg)
	}

	sess := m.state.Session
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "x":
		m.close()
		return m, nil
	case "o":
		if sess.State() == session.StateClosed {
			if req, ok := m.open(); ok {
				return m, m.fetchCmd(req)
			}
		}
		return m, nil
	case "r":
		req, err := sess.Refresh()
		m.state.Err = err
		if err != nil {
			return m, nil
		}
		return m, m.fetchCmd(req)
	}

	if sess.State() != session.StateReady {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		m.inspectCursor()
	case "esc":
		sess.ClearSelection()
	case "/":
		if sess.Mode() == session.ModeTable {
			m.state.Focus = state.FocusFilter
			return m, m.filter.Focus()
		}
		m.state.Focus = state.FocusSearch
		return m, m.search.Focus()
	case "t":
		m.toggleMode()
	case "tab", "right", "l":
		m.stepBucket(1)
	case "shift+tab", "left", "h":
		m.stepBucket(-1)
	case ".":
		m.stepTable(1)
	case ",":
		m.stepTable(-1)
	}
	return m, nil
}

func (m *MainModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.search.Blur()
		m.state.Focus = state.FocusView
		return m, nil
	}
	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != prev {
		return m, tea.Batch(cmd, m.debounceCmd(q))
	}
	return m, cmd
}

func (m *MainModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filter.Blur()
		m.state.Focus = state.FocusView
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if f := m.filter.Value(); f != m.state.Filter {
		m.state.Filter = f
		m.resetScroll()
	}
	return m, cmd
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, float64(m.tabCursor), v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	layout := views.ComputeLayout(m.width, m.height, m.state.Session)
	if w := layout.SideWidth - 4; w > 10 {
		m.chart.Resize(w, 8)
	}
	m.search.Width = max(layout.MainWidth-len(m.search.Prompt)-2, 10)
	m.filter.Width = max(layout.MainWidth-len(m.filter.Prompt)-2, 10)
	return m, nil
}

func (m *MainModel) handleFetchedMsg(msg FetchedMsg) (tea.Model, tea.Cmd) {
	sess := m.state.Session
	if !sess.Apply(msg.Response) {
		m.log.Debug("fetch result ignored", "view", msg.Response.ViewID, "state", sess.State())
		return m, nil
	}
	m.state.LastUpdate = time.Now()
	if sess.State() == session.StateReady {
		m.syncView(!msg.Response.Refresh)
	}
	return m, nil
}

func (m *MainModel) handleSearchMsg(msg SearchMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.searchSeq {
		return m, nil
	}
	m.state.Err = m.state.Session.Search(msg.Query)
	m.resetScroll()
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	sess := m.state.Session
	if msg.Action != tea.MouseActionRelease || sess.State() != session.StateReady {
		return m, nil
	}

	if sess.Mode() == session.ModeCanvas && sess.TabsEnabled() {
		for i := range sess.Buckets() {
			if zone.Get(views.TabZone(i)).InBounds(msg) {
				m.setBucket(i)
				return m, nil
			}
		}
	}

	overview := views.Overview(sess)
	if sec := overview.SectionByID(output.SectionLabels); sec != nil {
		for _, it := range sec.Items {
			if zone.Get(views.ChipZone(output.SectionLabels, it.Key)).InBounds(msg) {
				m.highlight(sess.HighlightLabel(it.Key))
				return m, nil
			}
		}
	}
	if sec := overview.SectionByID(output.SectionRelationships); sec != nil {
		for _, it := range sec.Items {
			if zone.Get(views.ChipZone(output.SectionRelationships, it.Key)).InBounds(msg) {
				m.highlight(sess.HighlightCaption(it.Key))
				return m, nil
			}
		}
	}

	if sess.Mode() == session.ModeTable {
		for _, t := range m.state.Tables().Tables {
			if zone.Get(views.TableZone(t.ID)).InBounds(msg) {
				m.setTable(t.ID)
				return m, nil
			}
		}
		for i, row := range m.state.Table().Rows {
			if zone.Get(views.RowZone(row.ID)).InBounds(msg) {
				m.state.Cursor = i
				m.inspectCursor()
				return m, nil
			}
		}
		return m, nil
	}

	for i, e := range views.CanvasEntries(sess.Graph()) {
		if zone.Get(e.Zone).InBounds(msg) {
			m.state.Cursor = i
			m.inspectCursor()
			return m, nil
		}
	}
	if zone.Get(views.CanvasBackground).InBounds(msg) {
		sess.ClearSelection()
	}
	return m, nil
}

// open starts the configured view. It returns the fetch to run, if any.
func (m *MainModel) open() (session.Request, bool) {
	m.clearInputs()
	m.state.Err = nil
	if m.cfg.Preloaded != nil {
		m.state.Session.OpenPreloaded(*m.cfg.Preloaded)
		m.state.LastUpdate = time.Now()
		if m.state.Session.State() == session.StateReady {
			m.syncView(true)
		}
		return session.Request{}, false
	}
	return m.state.Session.Open(m.cfg.Scope), true
}

func (m *MainModel) close() {
	m.state.Session.Close()
	m.clearInputs()
	m.state.TableID = ""
	m.state.Err = nil
	m.resetScroll()
}

// syncView aligns the renderer state with a freshly committed graph. A
// refresh keeps the table tab, filter and cursor.
func (m *MainModel) syncView(fresh bool) {
	sess := m.state.Session
	m.tabCursor = 0
	for i, b := range sess.Buckets() {
		if b == sess.Bucket() {
			m.tabCursor = i
		}
	}
	if fresh || m.state.Tables().ByID(m.state.TableID) == nil {
		m.state.TableID = m.state.Tables().DefaultID()
	}
	if fresh {
		m.resetScroll()
	} else {
		m.moveCursor(0)
	}

	m.syncChart()
}

// syncChart recounts the chart bars after the displayed graph changed shape.
func (m *MainModel) syncChart() {
	sess := m.state.Session
	g := sess.Graph()
	m.chart.Set(output.LabelChips(g.Nodes, sess.Canonical().Scheme))
}

func (m *MainModel) clearInputs() {
	m.searchSeq++
	m.search.SetValue("")
	m.search.Blur()
	m.filter.SetValue("")
	m.filter.Blur()
	m.state.Filter = ""
	m.state.Focus = state.FocusView
}

func (m *MainModel) resetScroll() {
	m.state.Cursor = 0
	m.state.ScrollY = 0
}

func (m *MainModel) toggleMode() {
	sess := m.state.Session
	next := session.ModeTable
	if sess.Mode() == session.ModeTable {
		next = session.ModeCanvas
	}
	m.state.Err = sess.SetDisplayMode(next)
	if sess.Mode() == session.ModeTable && m.state.TableID == "" {
		m.state.TableID = m.state.Tables().DefaultID()
	}
	m.resetScroll()
	m.syncChart()
}

func (m *MainModel) stepBucket(delta int) {
	sess := m.state.Session
	n := len(sess.Buckets())
	if sess.Mode() != session.ModeCanvas || !sess.TabsEnabled() || n == 0 {
		return
	}
	m.setBucket(((m.tabCursor+delta)%n + n) % n)
}

func (m *MainModel) setBucket(i int) {
	sess := m.state.Session
	if err := sess.SetBucket(sess.Buckets()[i]); err != nil {
		m.state.Err = err
		return
	}
	m.state.Err = nil
	m.tabCursor = i
	m.searchSeq++
	m.search.SetValue("")
	if sess.TakeFit() {
		m.resetScroll()
	}
	m.syncChart()
}

func (m *MainModel) stepTable(delta int) {
	tables := m.state.Tables().Tables
	for i, t := range tables {
		if t.ID == m.state.Table().ID {
			m.setTable(tables[((i+delta)%len(tables)+len(tables))%len(tables)].ID)
			return
		}
	}
}

func (m *MainModel) setTable(id string) {
	m.state.TableID = id
	m.filter.SetValue("")
	m.state.Filter = ""
	m.resetScroll()
}

// highlight finishes a chip click: the session has cleared its query, so
// the search box follows.
func (m *MainModel) highlight(err error) {
	m.state.Err = err
	if err == nil {
		m.searchSeq++
		m.search.SetValue("")
	}
}

func (m *MainModel) listLen() int {
	if m.state.Session.Mode() == session.ModeTable {
		return len(m.state.Table().Rows)
	}
	return len(views.CanvasEntries(m.state.Session.Graph()))
}

func (m *MainModel) moveCursor(delta int) {
	n := m.listLen()
	m.state.Cursor = min(max(m.state.Cursor+delta, 0), max(n-1, 0))

	visible := views.ComputeLayout(m.width, m.height, m.state.Session).Visible(m.state.Session.Mode())
	if m.state.Cursor < m.state.ScrollY {
		m.state.ScrollY = m.state.Cursor
	}
	if m.state.Cursor >= m.state.ScrollY+visible {
		m.state.ScrollY = m.state.Cursor - visible + 1
	}
}

func (m *MainModel) inspectCursor() {
	sess := m.state.Session
	if sess.Mode() == session.ModeTable {
		rows := m.state.Table().Rows
		if m.state.Cursor >= len(rows) {
			return
		}
		row := rows[m.state.Cursor]
		if row.Node != nil {
			m.state.Err = sess.SelectNode(row.ID)
		} else {
			m.state.Err = sess.SelectRelationship(row.ID)
		}
		return
	}

	entries := views.CanvasEntries(sess.Graph())
	if m.state.Cursor >= len(entries) {
		return
	}
	e := entries[m.state.Cursor]
	if e.Node != nil {
		m.state.Err = sess.SelectNode(e.Node.ID)
	} else {
		m.state.Err = sess.SelectRelationship(e.Rel.ID)
	}
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	return views.RenderPage(m.state, views.ViewProps{
		Width:       m.width,
		Height:      m.height,
		TabCursor:   m.tabCursor,
		AnimCursor:  m.animCursor,
		SpinnerView: m.spinner.View(),
		SearchView:  m.search.View(),
		FilterView:  m.filter.View(),
		ChartView:   m.chart.View(),
		ScrollY:     m.state.ScrollY,
	})
}

func Start(cfg Config) error {
	m := InitialModel(cfg)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
