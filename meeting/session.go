package meeting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/scrumsim/script"
)

// Status is the lifecycle state of a session.
type Status int

// Session states.
const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether the session is running or paused.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	SessionID uuid.UUID
	ScriptID  string
	Status    Status
	Index     int
	Total     int
	Handle    string
	Speaker   string
	Cancelled bool
	StartedAt time.Time
}

// session is the run-time state of one meeting. A new one is created by
// every Start and is never reused. Fields are guarded by Sequencer.mu.
type session struct {
	id     uuid.UUID
	script *script.Script
	reg    *script.Registry
	kind   string
	cb     Callbacks

	status    Status
	index     int
	cancelled bool
	resume    chan struct{}
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	report Report
	err    error
}
