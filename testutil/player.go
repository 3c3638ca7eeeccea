package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/randalmurphal/scrumsim/audio"
	"github.com/randalmurphal/scrumsim/playback"
)

// FakeStream is a playback.Stream ended by the test or by AutoFinish.
type FakeStream struct {
	Clip *audio.Clip

	mu      sync.Mutex
	paused  bool
	pauses  int
	resumes int
	ended   bool
	pending bool
	err     error
	done    chan struct{}
}

func newFakeStream(clip *audio.Clip) *FakeStream {
	return &FakeStream{Clip: clip, done: make(chan struct{})}
}

// Pause implements playback.Stream.
func (s *FakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.pauses++
	return nil
}

// Resume implements playback.Stream. A finish requested while paused takes
// effect on resume.
func (s *FakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.resumes++
	if s.pending {
		s.endLocked(nil)
	}
	return nil
}

// Stop implements playback.Stream.
func (s *FakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(playback.ErrStopped)
}

// Finish ends the stream naturally, or on resume if it is paused.
func (s *FakeStream) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.pending = true
		return
	}
	s.endLocked(nil)
}

// Fail ends the stream with a player error such as a device failure.
func (s *FakeStream) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(err)
}

func (s *FakeStream) endLocked(err error) {
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	close(s.done)
}

// Done implements playback.Stream.
func (s *FakeStream) Done() <-chan struct{} { return s.done }

// Err implements playback.Stream.
func (s *FakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Paused reports whether the stream is paused.
func (s *FakeStream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Counts returns how often the stream was paused and resumed.
func (s *FakeStream) Counts() (pauses, resumes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauses, s.resumes
}

// Stopped reports whether the stream was stopped rather than finished.
func (s *FakeStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended && s.err != nil
}

// FakePlayer is a playback.Player that hands each stream to the test.
type FakePlayer struct {
	// AutoFinish ends each stream after Delay.
	AutoFinish bool
	Delay      time.Duration

	// EndErr, when set, makes AutoFinish end streams with this error, like a
	// player process that exits with a failure.
	EndErr error

	// StartErr, when it returns non-nil, fails Start for that clip.
	StartErr func(clip *audio.Clip) error

	// Started receives every stream as it starts.
	Started chan *FakeStream

	mu      sync.Mutex
	streams []*FakeStream
}

var _ playback.Player = (*FakePlayer)(nil)

// NewFakePlayer creates a player whose streams end only when the test
// calls Finish or Stop.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{Started: make(chan *FakeStream, 64)}
}

// NewAutoPlayer creates a player whose streams end after delay.
func NewAutoPlayer(delay time.Duration) *FakePlayer {
	p := NewFakePlayer()
	p.AutoFinish = true
	p.Delay = delay
	return p
}

// Start implements playback.Player.
func (p *FakePlayer) Start(_ context.Context, clip *audio.Clip) (playback.Stream, error) {
	if p.StartErr != nil {
		if err := p.StartErr(clip); err != nil {
			return nil, err
		}
	}

	s := newFakeStream(clip)
	p.mu.Lock()
	p.streams = append(p.streams, s)
	p.mu.Unlock()

	select {
	case p.Started <- s:
	default:
	}

	if p.AutoFinish {
		if p.EndErr != nil {
			time.AfterFunc(p.Delay, func() { s.Fail(p.EndErr) })
		} else {
			time.AfterFunc(p.Delay, s.Finish)
		}
	}
	return s, nil
}

// Streams returns every stream started so far.
func (p *FakePlayer) Streams() []*FakeStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*FakeStream(nil), p.streams...)
}
