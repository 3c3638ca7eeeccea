package meeting

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// Report is delivered when a session ends.
type Report struct {
	SessionID       uuid.UUID           `json:"sessionId"`
	ScriptID        string              `json:"scriptId"`
	Transcript      []transcript.Entry  `json:"transcript"`
	SideEffects     []sideeffect.Result `json:"sideEffects,omitempty"`
	DurationSeconds float64             `json:"durationSeconds"`
	Cancelled       bool                `json:"cancelled"`
	StartedAt       time.Time           `json:"startedAt"`
	EndedAt         time.Time           `json:"endedAt"`
}

// Callbacks receive session events. All are optional and are called from the
// session goroutine, so they must not block for long or call Wait.
type Callbacks struct {
	// OnComplete receives the report of a session that ran to the end.
	OnComplete func(Report)

	// OnCancel receives the partial report of a cancelled session.
	OnCancel func(Report)

	// OnError receives the fatal error that ended a session, with the
	// partial report.
	OnError func(error, Report)

	// OnTranscript receives each entry as it is appended.
	OnTranscript func(transcript.Entry)

	// OnSideEffect receives each fired side effect.
	OnSideEffect func(sideeffect.Result)
}

// Default reading time settings.
const (
	DefaultReadingMin = 1500 * time.Millisecond
	DefaultReadingWPM = 180
)

// ReadingTime is how long a turn without audio stays on screen.
type ReadingTime struct {
	Min time.Duration
	WPM int
}

// For returns max(Min, words/WPM) for text.
func (r ReadingTime) For(text string) time.Duration {
	minimum := r.Min
	if minimum <= 0 {
		minimum = DefaultReadingMin
	}
	wpm := r.WPM
	if wpm <= 0 {
		wpm = DefaultReadingWPM
	}

	words := len(strings.Fields(text))
	d := time.Duration(words) * time.Minute / time.Duration(wpm)
	if d < minimum {
		return minimum
	}
	return d
}
