package notify

import (
	"context"
	"slices"
	"time"
)

// EventType names a meeting lifecycle event.
type EventType string

// Event types.
const (
	EventMeetingStarted   EventType = "meeting_started"
	EventMeetingCompleted EventType = "meeting_completed"
	EventMeetingCancelled EventType = "meeting_cancelled"
	EventMeetingFailed    EventType = "meeting_failed"
	EventSideEffectFailed EventType = "side_effect_failed"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes something that happened to a meeting session.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	ScriptID  string         `json:"script_id"`
	SegmentID string         `json:"segment_id,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Failed reports whether the event records a failure.
func (e Event) Failed() bool {
	return e.Type == EventMeetingFailed || e.Type == EventSideEffectFailed
}

// Notifier delivers meeting events. The sequencer logs returned errors and
// carries on.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error { return f(ctx, event) }

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error { return nil }

// Only forwards events of the listed types to next and drops the rest.
func Only(next Notifier, types ...EventType) Notifier {
	return NotifierFunc(func(ctx context.Context, event Event) error {
		if !slices.Contains(types, event.Type) {
			return nil
		}
		return next.Notify(ctx, event)
	})
}
