package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Measure decodes a clip's header and returns its playing time.
func Measure(c *Clip) (time.Duration, error) {
	format := c.Format
	if format == "" && c.Path != "" {
		format = FormatFromPath(c.Path)
	}

	rc, err := c.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	return MeasureReader(format, rc)
}

// MeasureBytes returns the playing time of encoded audio.
func MeasureBytes(format Format, data []byte) (time.Duration, error) {
	return MeasureReader(format, io.NopCloser(bytes.NewReader(data)))
}

// MeasureReader returns the playing time of encoded audio read from rc.
func MeasureReader(format Format, rc io.ReadCloser) (time.Duration, error) {
	var (
		stream beep.StreamSeekCloser
		f      beep.Format
		err    error
	)
	switch format {
	case FormatWAV:
		stream, f, err = wav.Decode(rc)
	case FormatMP3:
		stream, f, err = mp3.Decode(rc)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", format, err)
	}
	defer stream.Close()

	return f.SampleRate.D(stream.Len()), nil
}
