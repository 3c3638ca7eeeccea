// Package tui renders a running meeting as a full-screen terminal view.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// RefreshInterval is how often the view polls the session status and turn.
const RefreshInterval = 100 * time.Millisecond

// Session is the control surface of a running meeting.
type Session interface {
	Pause() error
	Resume() error
	Cancel() error
	Snapshot() meeting.Snapshot
}

// EntryMsg carries a transcript entry appended by the session.
type EntryMsg transcript.Entry

// EffectMsg carries a fired side effect.
type EffectMsg sideeffect.Result

// DoneMsg reports the end of the session.
type DoneMsg struct {
	Report meeting.Report
	Err    error
}

type tickMsg time.Time

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FD1AE"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2C14E"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3C3F58")).Padding(0, 1)
)

// Model is the bubbletea model of one meeting.
type Model struct {
	session Session
	title   string
	names   map[string]string

	entries []transcript.Entry
	effects []sideeffect.Result
	snap    meeting.Snapshot
	speaker string

	done     *DoneMsg
	quitting bool
	lastErr  error

	width  int
	height int
}

// New builds the view for doc played by session.
func New(session Session, doc *script.Document) Model {
	names := make(map[string]string)
	for _, p := range doc.Participants.Participants() {
		names[p.ID] = p.DisplayName
	}
	return Model{
		session: session,
		title:   doc.Script.Title(),
		names:   names,
		width:   100,
		height:  30,
	}
}

// Result returns the end of the session once it has been received.
func (m Model) Result() (DoneMsg, bool) {
	if m.done == nil {
		return DoneMsg{}, false
	}
	return *m.done, true
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EntryMsg:
		m.entries = append(m.entries, transcript.Entry(msg))
		return m, nil

	case EffectMsg:
		m.effects = append(m.effects, sideeffect.Result(msg))
		return m, nil

	case SpeakerMsg:
		m.speaker = string(msg)
		return m, nil

	case DoneMsg:
		m.done = &msg
		m.snap = m.session.Snapshot()
		return m, tea.Quit

	case tickMsg:
		if m.done != nil {
			return m, nil
		}
		m.snap = m.session.Snapshot()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.done != nil {
			return m, tea.Quit
		}
		// The session reports through DoneMsg once cancelled.
		m.quitting = true
		m.lastErr = ignoreInactive(m.session.Cancel())
		return m, nil

	case "p", " ":
		if m.done != nil || m.quitting {
			return m, nil
		}
		if m.session.Snapshot().Status == meeting.StatusPaused {
			m.lastErr = m.session.Resume()
		} else {
			m.lastErr = m.session.Pause()
		}
		m.snap = m.session.Snapshot()
		return m, nil
	}
	return m, nil
}

func ignoreInactive(err error) error {
	if errors.Is(err, meeting.ErrNotActive) {
		return nil
	}
	return err
}

func (m Model) View() string {
	sideWidth := 34
	mainWidth := m.width - sideWidth - 4
	if mainWidth < 30 {
		mainWidth = 30
	}
	paneHeight := m.height - 6
	if paneHeight < 5 {
		paneHeight = 5
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(m.title),
		"  ",
		dimStyle.Render(m.progress()),
	)

	talk := paneStyle.Width(mainWidth).Height(paneHeight).Render(m.transcriptView(paneHeight))
	side := paneStyle.Width(sideWidth).Height(paneHeight).Render(m.boardView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, talk, side)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.footer())
}

func (m Model) progress() string {
	status := m.snap.Status.String()
	if m.quitting && m.done == nil {
		status = "stopping"
	}
	return fmt.Sprintf("%s · turn %d/%d", status, min(m.snap.Index+1, m.snap.Total), m.snap.Total)
}

func (m Model) transcriptView(height int) string {
	var lines []string
	last := len(m.entries) - 1
	for i, e := range m.entries {
		name := speakerStyle.Render(e.SpeakerName)
		if i == last && e.SpeakerID == m.speaker && m.snap.Status.Active() {
			name = activeStyle.Render("▶ " + e.SpeakerName)
		}
		lines = append(lines, fmt.Sprintf("%s %s", name, e.Text))
	}
	if len(lines) == 0 {
		return dimStyle.Render("Waiting for the first speaker...")
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (m Model) boardView() string {
	lines := []string{titleStyle.Render("Board")}
	if len(m.effects) == 0 {
		lines = append(lines, dimStyle.Render("No changes yet"))
	}
	for _, r := range m.effects {
		switch item, ok := r.Value.(board.Item); {
		case !r.OK():
			lines = append(lines, errorStyle.Render(fmt.Sprintf("✗ %s", r.EffectID)))
		case ok:
			lines = append(lines, fmt.Sprintf("%s → %s", item.ID, item.Column))
		default:
			lines = append(lines, r.EffectID)
		}
	}
	if sp := m.names[m.speaker]; sp != "" && m.snap.Status.Active() {
		lines = append(lines, "", dimStyle.Render("Speaking: ")+activeStyle.Render(sp))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	help := dimStyle.Render("p/space pause · q quit")
	if m.snap.Status == meeting.StatusPaused {
		help = dimStyle.Render("p/space resume · q quit")
	}
	if m.lastErr != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, help, "  ", errorStyle.Render(m.lastErr.Error()))
	}
	return help
}
