package playback

import (
	"time"

	"github.com/randalmurphal/scrumsim/audio"
)

// State is the lifecycle state of a handle.
type State int

// Handle states.
const (
	StatePending State = iota
	StatePlaying
	StatePaused
	StateFinished
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s >= StateFinished
}

// Handle is an utterance issued by a Controller. Its mutable fields are
// guarded by the controller.
type Handle struct {
	id        string
	clip      *audio.Clip
	speakerID string
	silent    bool
	ctl       *Controller

	state  State
	stream Stream
	done   chan struct{}
}

// ID returns the handle's identifier.
func (h *Handle) ID() string { return h.id }

// Clip returns the clip being played. Silent handles carry a clip with only
// a duration.
func (h *Handle) Clip() *audio.Clip { return h.clip }

// SpeakerID returns the speaker this handle voices.
func (h *Handle) SpeakerID() string { return h.speakerID }

// Silent reports whether the handle is timed reading rather than audio.
func (h *Handle) Silent() bool { return h.silent }

// State returns the current state.
func (h *Handle) State() State {
	h.ctl.mu.Lock()
	defer h.ctl.mu.Unlock()
	return h.state
}

// Done is closed once the handle reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Position reports how far playback has progressed, when the player can tell.
func (h *Handle) Position() (time.Duration, bool) {
	h.ctl.mu.Lock()
	s := h.stream
	h.ctl.mu.Unlock()
	if p, ok := s.(interface{ Position() time.Duration }); ok {
		return p.Position(), true
	}
	return 0, false
}

// close moves the handle to a terminal state. Caller holds ctl.mu.
func (h *Handle) close(state State) bool {
	if h.state.Terminal() {
		return false
	}
	h.state = state
	close(h.done)
	return true
}
