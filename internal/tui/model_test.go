package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

type fakeSession struct {
	snap    meeting.Snapshot
	calls   []string
	failErr error
}

func (s *fakeSession) Pause() error {
	s.calls = append(s.calls, "pause")
	s.snap.Status = meeting.StatusPaused
	return s.failErr
}

func (s *fakeSession) Resume() error {
	s.calls = append(s.calls, "resume")
	s.snap.Status = meeting.StatusRunning
	return s.failErr
}

func (s *fakeSession) Cancel() error {
	s.calls = append(s.calls, "cancel")
	s.snap.Status = meeting.StatusCancelled
	return s.failErr
}

func (s *fakeSession) Snapshot() meeting.Snapshot { return s.snap }

func testDoc(t *testing.T) *script.Document {
	t.Helper()
	reg, err := script.NewRegistry(script.Participant{ID: "sarah", DisplayName: "Sarah"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	sc := script.MustNew("standup", "Daily Standup", []script.Segment{
		{ID: "s1", SpeakerID: "sarah", Text: "Morning all."},
	})
	return &script.Document{Script: sc, Participants: reg}
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return out, cmd
}

func TestModel_PauseToggle(t *testing.T) {
	sess := &fakeSession{snap: meeting.Snapshot{Status: meeting.StatusRunning, Total: 1}}
	m := New(sess, testDoc(t))

	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, key(" "))

	want := []string{"pause", "resume"}
	if strings.Join(sess.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", sess.calls, want)
	}
	if m.snap.Status != meeting.StatusRunning {
		t.Errorf("status = %v, want running", m.snap.Status)
	}
}

func TestModel_QuitCancelsAndWaitsForDone(t *testing.T) {
	sess := &fakeSession{snap: meeting.Snapshot{Status: meeting.StatusRunning, Total: 1}}
	m := New(sess, testDoc(t))

	m, cmd := update(t, m, key("q"))
	if cmd != nil {
		t.Errorf("quit before the session ended should not exit the program")
	}
	if len(sess.calls) != 1 || sess.calls[0] != "cancel" {
		t.Errorf("calls = %v, want [cancel]", sess.calls)
	}

	// Keys after cancel do not pause.
	m, _ = update(t, m, key("p"))
	if len(sess.calls) != 1 {
		t.Errorf("calls after quit = %v, want only cancel", sess.calls)
	}

	m, cmd = update(t, m, DoneMsg{Report: meeting.Report{Cancelled: true}})
	if cmd == nil {
		t.Fatal("DoneMsg should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("DoneMsg cmd = %T, want tea.QuitMsg", cmd())
	}
	res, ok := m.Result()
	if !ok || !res.Report.Cancelled {
		t.Errorf("Result() = %+v, %v, want cancelled report", res, ok)
	}
}

func TestModel_CancelInactiveIsQuiet(t *testing.T) {
	sess := &fakeSession{failErr: meeting.ErrNotActive}
	m := New(sess, testDoc(t))

	m, _ = update(t, m, key("q"))
	if m.lastErr != nil {
		t.Errorf("lastErr = %v, want nil for an inactive session", m.lastErr)
	}

	sess.failErr = errors.New("boom")
	m, _ = update(t, m, key("ctrl+c"))
	if m.lastErr == nil {
		t.Error("lastErr = nil, want boom")
	}
}

func TestModel_ViewShowsTranscriptAndBoard(t *testing.T) {
	sess := &fakeSession{snap: meeting.Snapshot{Status: meeting.StatusRunning, Total: 1}}
	m := New(sess, testDoc(t))

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
	m, _ = update(t, m, EntryMsg(transcript.Entry{ID: "s1", SpeakerID: "sarah", SpeakerName: "Sarah", Text: "Morning all."}))
	m, _ = update(t, m, EffectMsg(sideeffect.Result{EffectID: "move", Value: board.Item{ID: "TICKET-7", Column: "ready"}}))
	m, _ = update(t, m, SpeakerMsg("sarah"))
	m, cmd := update(t, m, tickMsg{})
	if cmd == nil {
		t.Error("tick should schedule another tick while running")
	}

	view := m.View()
	for _, want := range []string{"Daily Standup", "Morning all.", "TICKET-7 → ready", "Speaking:", "turn 1/1"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if !strings.Contains(view, "▶ Sarah") {
		t.Error("View() should mark the active speaker")
	}

	m, _ = update(t, m, SpeakerMsg(""))
	if view := m.View(); strings.Contains(view, "Speaking:") || strings.Contains(view, "▶") {
		t.Error("View() should drop the speaker once the signal clears")
	}
}
