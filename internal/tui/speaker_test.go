package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSpeakerRelay_DeliversLatest(t *testing.T) {
	r := NewSpeakerRelay()

	// Signals before Run collapse into the latest value and do not block.
	r.Signal("sarah")
	r.Signal("victor")

	got := make(chan tea.Msg, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, func(msg tea.Msg) { got <- msg })

	if msg := receive(t, got); msg != SpeakerMsg("victor") {
		t.Errorf("first message = %v, want victor", msg)
	}

	r.Signal("")
	if msg := receive(t, got); msg != SpeakerMsg("") {
		t.Errorf("second message = %v, want silence", msg)
	}
}

func TestSpeakerRelay_StopsWithContext(t *testing.T) {
	r := NewSpeakerRelay()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, func(tea.Msg) {})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	r.Signal("sarah")
}

func receive(t *testing.T, ch <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message relayed")
		return nil
	}
}
