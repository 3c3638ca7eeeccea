package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrDuplicateEntry indicates an entry whose ID is already recorded.
	ErrDuplicateEntry = errors.New("transcript entry already recorded")

	// ErrSessionActive indicates Clear was called mid-session.
	ErrSessionActive = errors.New("cannot clear transcript during a session")

	// ErrInvalidEntry indicates an entry without an ID or speaker.
	ErrInvalidEntry = errors.New("invalid transcript entry")
)

// Entry is one spoken turn. ID is the segment ID.
type Entry struct {
	ID          string    `json:"id"`
	SpeakerID   string    `json:"speakerId"`
	SpeakerName string    `json:"speakerName"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// Recorder is an append-only, ordered log of entries. Entries cannot be
// edited, removed or reordered; Clear is only allowed between sessions.
type Recorder struct {
	now func() time.Time

	mu      sync.RWMutex
	entries []Entry
	ids     map[string]bool
	active  bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now, ids: make(map[string]bool)}
}

// Begin marks the start of a session.
func (r *Recorder) Begin() {
	r.mu.Lock()
	r.active = true
	r.mu.Unlock()
}

// End marks the end of a session.
func (r *Recorder) End() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

// Active reports whether a session is in progress.
func (r *Recorder) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Append records e. A zero timestamp is set to the current time. The stored
// entry is returned.
func (r *Recorder) Append(e Entry) (Entry, error) {
	if e.ID == "" || e.SpeakerID == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids[e.ID] {
		return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.ID)
	}
	r.ids[e.ID] = true
	r.entries = append(r.entries, e)
	return e, nil
}

// All returns a copy of the entries in append order.
func (r *Recorder) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes all entries. It fails while a session is active.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrSessionActive
	}
	r.entries = nil
	r.ids = make(map[string]bool)
	return nil
}
