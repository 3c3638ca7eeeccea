package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// testWAV encodes d of silence as 8kHz mono 16-bit WAV.
func testWAV(t *testing.T, d time.Duration) []byte {
	t.Helper()

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, beep.Take(format.SampleRate.N(d), beep.Silence(-1)), format); err != nil {
		f.Close()
		t.Fatalf("encode wav: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// stubProvider is a scriptable Provider.
type stubProvider struct {
	name      string
	source    Source
	available bool
	attempt   func(ctx context.Context, req Request) (*Clip, error)
	calls     atomic.Int32
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Source() Source  { return s.source }
func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Attempt(ctx context.Context, req Request) (*Clip, error) {
	s.calls.Add(1)
	if s.attempt == nil {
		return nil, nil
	}
	return s.attempt(ctx, req)
}

func hit(data []byte) func(context.Context, Request) (*Clip, error) {
	return func(context.Context, Request) (*Clip, error) {
		return &Clip{Data: data, Format: FormatWAV}, nil
	}
}

func fail(err error) func(context.Context, Request) (*Clip, error) {
	return func(context.Context, Request) (*Clip, error) {
		return nil, err
	}
}
