package watch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	pollInterval = 200 * time.Millisecond
	maxLogLines  = 500
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// pollMsg triggers a tracker poll.
type pollMsg struct{}

// updatesMsg carries freshly polled updates.
type updatesMsg struct{ updates []Update }

// UI renders a live view of a running trial from its log files.
type UI struct {
	program teaProgram
	done    chan struct{}
}

// NewUI starts the bubbletea program over a tracker.
func NewUI(tracker *Tracker) *UI {
	u := &UI{done: make(chan struct{})}
	p := tea.NewProgram(newModel(tracker), tea.WithAltScreen())
	u.program = p
	go func() {
		_, _ = p.Run()
		close(u.done)
	}()
	return u
}

// Wait blocks until the user quits the UI.
func (u *UI) Wait() {
	<-u.done
}

// Close shuts the UI down and waits for terminal cleanup.
func (u *UI) Close() {
	if u.program != nil {
		u.program.Send(tea.Quit())
	}
	<-u.done
}

type model struct {
	tracker    *Tracker
	table      table.Model
	vp         viewport.Model
	logs       []string
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newModel(tracker *Tracker) model {
	cols := []table.Column{
		{Title: "VM", Width: 4},
		{Title: "Trial", Width: 6},
		{Title: "Clock", Width: 10},
		{Title: "Queue", Width: 6},
		{Title: "Events", Width: 8},
		{Title: "Last", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	return model{
		tracker:    tracker,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m model) Init() tea.Cmd {
	return m.schedulePoll()
}

func (m model) schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		vh := msg.Height - m.table.Height() - 4
		if vh < 3 {
			vh = 3
		}
		m.vp.Height = vh
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "a":
			m.autoscroll = !m.autoscroll
		case "up", "k":
			m.vp.LineUp(1)
		case "down", "j":
			m.vp.LineDown(1)
		}
	case pollMsg:
		if m.tracker != nil {
			return m, tea.Batch(
				func() tea.Msg { return updatesMsg{updates: m.tracker.Poll()} },
				m.schedulePoll(),
			)
		}
		return m, m.schedulePoll()
	case updatesMsg:
		m.applyUpdates(msg.updates)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) applyUpdates(updates []Update) {
	if len(updates) == 0 {
		return
	}
	for _, u := range updates {
		m.logs = append(m.logs, u.Line)
	}
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshTable()
	m.refreshViewport()
}

func (m *model) refreshTable() {
	if m.tracker == nil {
		return
	}
	var rows []table.Row
	for _, st := range m.tracker.Snapshot() {
		queue := "-"
		if st.QueueLen >= 0 {
			queue = strconv.Itoa(st.QueueLen)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(st.VMID),
			strconv.Itoa(st.Trial),
			strconv.FormatUint(st.Clock, 10),
			queue,
			strconv.Itoa(st.Events),
			string(st.LastType),
		})
	}
	m.table.SetRows(rows)
}

func (m *model) refreshViewport() {
	content := ""
	for i, line := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			line = wordwrap.String(line, m.vp.Width)
		}
		if i > 0 {
			content += "\n"
		}
		content += line
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m model) View() string {
	header := headerStyle.Render("clocksim — logical clock trial")
	help := dimStyle.Render(fmt.Sprintf("q quit · w wrap · a autoscroll (%v) · ↑/↓ scroll", m.autoscroll))
	return header + "\n" + m.table.View() + "\n" + m.vp.View() + "\n" + help
}
