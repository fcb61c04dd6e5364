// Package tui is an interactive terminal browser: a session list next to a
// scrollable transcript, driven by a view.Controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/render/terminal"
	"github.com/sonnes/chatview/view"
)

const listWidth = 34

type mode int

const (
	modeList mode = iota
	modeSearch
)

// loadedMsg reports that a controller fetch finished. The controller holds
// the result; err is only shown in the status bar.
type loadedMsg struct{ err error }

// Model is the bubbletea model of the browser.
type Model struct {
	ctx       context.Context
	ctl       *view.Controller
	preferred string

	state    view.State
	filtered []core.SessionSummary
	cursor   int
	offset   int

	mode     mode
	search   textinput.Model
	viewport viewport.Model
	width    int
	height   int
	status   string
	quitting bool
}

// NewModel creates a browser over ctl. preferred is selected after the first
// load; empty selects the most recent session.
func NewModel(ctx context.Context, ctl *view.Controller, preferred string) Model {
	si := textinput.New()
	si.Placeholder = "filter sessions..."
	si.CharLimit = 100

	m := Model{
		ctx:       ctx,
		ctl:       ctl,
		preferred: preferred,
		search:    si,
		width:     120,
		height:    30,
	}
	m.viewport = viewport.New(m.transcriptWidth(), m.bodyHeight())
	m.state = ctl.State()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd(m.preferred)
}

func (m Model) loadCmd(preferred string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.ctl.Load(m.ctx, preferred)}
	}
}

func (m Model) selectCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.ctl.Select(m.ctx, sessionID)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.transcriptWidth()
		m.viewport.Height = m.bodyHeight()
		m.refresh()
		return m, nil

	case loadedMsg:
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.sync()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.clampOffset()
		}

	case "home", "g":
		m.cursor = 0
		m.clampOffset()

	case "end", "G":
		m.cursor = max(0, len(m.filtered)-1)
		m.clampOffset()

	case "enter":
		if len(m.filtered) > 0 {
			return m.startSelect(m.filtered[m.cursor].SessionID)
		}

	case "a":
		return m.startSelect("")

	case "r":
		m.status = "reloading..."
		return m, m.loadCmd(m.state.Selected)

	case "/":
		m.search.Focus()
		m.mode = modeSearch

	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
	}
	return m, nil
}

// startSelect shows the loading state right away; the fetch result arrives
// as a loadedMsg.
func (m Model) startSelect(sessionID string) (tea.Model, tea.Cmd) {
	m.state.Selected = sessionID
	if sessionID != "" {
		m.state.Phase = view.PhaseLoadingTranscript
		m.state.Records = nil
	}
	m.refresh()
	return m, m.selectCmd(sessionID)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.search.Blur()
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

// sync copies the controller state and re-derives everything shown.
func (m *Model) sync() {
	m.state = m.ctl.State()
	m.applyFilter()
	for i, s := range m.filtered {
		if s.SessionID == m.state.Selected {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
	m.refresh()
}

func (m *Model) applyFilter() {
	m.filtered = nil
	q := strings.ToLower(m.search.Value())
	for _, s := range m.state.Sessions {
		if q != "" && !strings.Contains(strings.ToLower(s.SessionID), q) {
			continue
		}
		m.filtered = append(m.filtered, s)
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.clampOffset()
}

// refresh renders the transcript pane into the viewport.
func (m *Model) refresh() {
	d := view.Render(m.state)
	r := &terminal.Renderer{Width: m.transcriptWidth()}

	var b strings.Builder
	if err := r.RenderDisplay(&b, d); err != nil {
		m.viewport.SetContent(err.Error())
		return
	}
	m.viewport.SetContent(b.String())
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	d := view.Render(m.state)

	title := titleStyle.Render("chatview")
	stats := dimStyle.Render(fmt.Sprintf("  %d sessions · %d messages", d.TotalSessions, d.TotalMessages))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.renderList()),
		" "+m.viewport.View(),
	)

	var bottom string
	switch {
	case m.mode == modeSearch:
		bottom = statusBarStyle.Render("Filter: ") + m.search.View()
	case m.status != "":
		bottom = statusBarStyle.Render(m.status)
	default:
		bottom = helpStyle.Render("  Enter: open  a: all sessions  /: filter  r: reload  PgUp/PgDn: scroll  q: quit")
	}

	return title + stats + "\n" + body + "\n" + bottom
}

func (m Model) renderList() string {
	rows := m.bodyHeight()
	lines := make([]string, 0, rows)

	end := min(m.offset+rows, len(m.filtered))
	for i := m.offset; i < end; i++ {
		s := m.filtered[i]
		label := ansi.Truncate(s.SessionID, listWidth-8, "…")
		pad := strings.Repeat(" ", max(0, listWidth-8-ansi.StringWidth(label)))
		row := fmt.Sprintf("%s%s %5d", label, pad, s.MessageCount)

		switch {
		case i == m.cursor:
			row = selectedStyle.Render(row)
		case s.SessionID == m.state.Selected:
			row = activeStyle.Render(row)
		}
		lines = append(lines, row)
	}
	if len(m.filtered) == 0 {
		lines = append(lines, dimStyle.Render("No sessions"))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) transcriptWidth() int {
	return max(20, m.width-listWidth-2)
}

// bodyHeight is the terminal height minus the title and bottom bars.
func (m Model) bodyHeight() int {
	return max(1, m.height-2)
}

func (m *Model) clampOffset() {
	rows := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Selected returns the session selected when the browser exited.
func (m Model) Selected() string {
	return m.state.Selected
}
