package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// SpeakerMsg carries the audible speaker ID, or "" when nobody speaks.
type SpeakerMsg string

// SpeakerRelay forwards playback speaker signals to the program. Signal never
// blocks, since the controller emits it while Update may be calling Pause.
// While a send is pending only the latest speaker is kept.
type SpeakerRelay struct {
	mu     sync.Mutex
	latest string
	wake   chan struct{}
}

// NewSpeakerRelay creates a relay. Start it with Run.
func NewSpeakerRelay() *SpeakerRelay {
	return &SpeakerRelay{wake: make(chan struct{}, 1)}
}

// Signal records speakerID. It matches playback.SpeakerFunc.
func (r *SpeakerRelay) Signal(speakerID string) {
	r.mu.Lock()
	r.latest = speakerID
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run sends a SpeakerMsg for each change until ctx is done.
func (r *SpeakerRelay) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			r.mu.Lock()
			id := r.latest
			r.mu.Unlock()
			send(SpeakerMsg(id))
		}
	}
}
