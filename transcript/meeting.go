package transcript

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Archive errors.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrSessionNotStarted    = errors.New("session not started")
)

// Status is the final state of an archived session.
type Status string

// Session statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Meeting is an archived session.
type Meeting struct {
	SessionID   string         `json:"sessionId"`
	Metadata    Meta           `json:"metadata"`
	Entries     []Entry        `json:"entries"`
	SideEffects []EffectRecord `json:"sideEffects,omitempty"`
}

// Meta describes an archived session.
type Meta struct {
	SessionID    string    `json:"sessionId,omitempty"`
	ScriptID     string    `json:"scriptId"`
	Title        string    `json:"title,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	EndedAt      time.Time `json:"endedAt,omitempty"`
	Status       Status    `json:"status"`
	EntryCount   int       `json:"entryCount"`
	Error        string    `json:"error,omitempty"`
}

// EffectRecord is an archived side effect firing.
type EffectRecord struct {
	EffectID  string    `json:"effectId"`
	SegmentID string    `json:"segmentId"`
	Error     string    `json:"error,omitempty"`
	FiredAt   time.Time `json:"firedAt"`
}

// SessionMetadata is input for starting an archived session.
type SessionMetadata struct {
	ScriptID     string
	Title        string
	Kind         string
	Participants []string
}

// Duration returns the session duration.
func (m *Meeting) Duration() time.Duration {
	if m.Metadata.EndedAt.IsZero() {
		return time.Since(m.Metadata.StartedAt)
	}
	return m.Metadata.EndedAt.Sub(m.Metadata.StartedAt)
}

// IsActive returns true if the session is still in progress.
func (m *Meeting) IsActive() bool {
	return m.Metadata.Status == StatusRunning
}

// Speakers returns each speaker name once, in order of first appearance.
func (m *Meeting) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m.Entries {
		if !seen[e.SpeakerName] {
			seen[e.SpeakerName] = true
			out = append(out, e.SpeakerName)
		}
	}
	return out
}

// compressionThreshold is the size above which meetings are gzipped.
const compressionThreshold = 100 * 1024

const (
	plainFile      = "transcript.json"
	compressedFile = "transcript.json.gz"
)

// Save writes the meeting under baseDir/sessions/<id>.
func (m *Meeting) Save(baseDir string) error {
	dir := sessionDir(baseDir, m.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if len(data) > compressionThreshold {
		os.Remove(filepath.Join(dir, plainFile))
		return saveCompressed(filepath.Join(dir, compressedFile), data)
	}

	os.Remove(filepath.Join(dir, compressedFile))
	return os.WriteFile(filepath.Join(dir, plainFile), data, 0o644)
}

func saveCompressed(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		f.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadMeeting reads an archived meeting.
func LoadMeeting(baseDir, sessionID string) (*Meeting, error) {
	dir := sessionDir(baseDir, sessionID)

	data, err := loadCompressed(filepath.Join(dir, compressedFile))
	if err != nil {
		data, err = os.ReadFile(filepath.Join(dir, plainFile))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
	}

	var m Meeting
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

func sessionDir(baseDir, sessionID string) string {
	return filepath.Join(baseDir, "sessions", sessionID)
}
