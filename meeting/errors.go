package meeting

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/scrumsim/script"
)

var (
	// ErrAlreadyRunning indicates Start while a session is running or paused.
	ErrAlreadyRunning = errors.New("meeting already running")

	// ErrNotRunning indicates Pause outside the running state.
	ErrNotRunning = errors.New("meeting not running")

	// ErrNotPaused indicates Resume outside the paused state.
	ErrNotPaused = errors.New("meeting not paused")

	// ErrNotActive indicates Cancel with no running or paused session.
	ErrNotActive = errors.New("no active meeting")

	// ErrNoSession indicates Wait before any session was started.
	ErrNoSession = errors.New("no meeting started")

	// ErrInvalidInput indicates Start without a script or registry.
	ErrInvalidInput = errors.New("invalid meeting input")
)

// UnknownSpeakerError reports a segment whose speaker is not registered.
type UnknownSpeakerError struct {
	SegmentID string
	SpeakerID string
}

func (e *UnknownSpeakerError) Error() string {
	return fmt.Sprintf("segment %s: unknown speaker %q", e.SegmentID, e.SpeakerID)
}

// Unwrap returns script.ErrUnknownSpeaker.
func (e *UnknownSpeakerError) Unwrap() error {
	return script.ErrUnknownSpeaker
}
