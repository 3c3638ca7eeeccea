package audio

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source is the provenance of a clip.
type Source string

// Clip sources in chain order.
const (
	SourceCached     Source = "cached"
	SourceCommercial Source = "commercial"
	SourceLocal      Source = "local"
)

// Format is an audio container format.
type Format string

// Supported formats.
const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// FormatFromContentType maps a MIME type to a Format. Unknown types return "".
func FormatFromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return FormatWAV
	case "audio/mpeg", "audio/mp3":
		return FormatMP3
	default:
		return ""
	}
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return ""
	}
}

// Clip is a playable audio resource with its provenance. Audio is held either
// in memory (Data) or on disk (Path). Each Resolve returns a fresh Clip.
type Clip struct {
	ID        string
	SpeakerID string
	Text      string
	Source    Source
	Provider  string
	Format    Format
	Data      []byte
	Path      string
	Duration  time.Duration
}

// Empty reports whether the clip carries no audio.
func (c *Clip) Empty() bool {
	return c == nil || (len(c.Data) == 0 && c.Path == "")
}

// Open returns a reader over the clip's audio.
func (c *Clip) Open() (io.ReadCloser, error) {
	if len(c.Data) > 0 {
		return io.NopCloser(bytes.NewReader(c.Data)), nil
	}
	if c.Path == "" {
		return nil, ErrEmptyAudio
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open clip %s: %w", c.ID, err)
	}
	return f, nil
}

// Request asks for audio of one turn.
type Request struct {
	SpeakerID   string
	SpeakerName string
	VoiceRef    string
	Text        string
}

// speaker returns the name used for cache keys, falling back to the ID.
func (r Request) speaker() string {
	if r.SpeakerName != "" {
		return r.SpeakerName
	}
	return r.SpeakerID
}

func (r Request) validate() error {
	if strings.TrimSpace(r.SpeakerID) == "" {
		return fmt.Errorf("%w: missing speaker", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidRequest)
	}
	return nil
}
