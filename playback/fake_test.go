package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/scrumsim/audio"
)

type fakeStream struct {
	mu      sync.Mutex
	pauses  int
	resumes int
	stopped bool
	ended   bool
	err     error
	done    chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{done: make(chan struct{})}
}

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	return nil
}

func (s *fakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes++
	return nil
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.stopped = true
	s.ended = true
	s.err = ErrStopped
	close(s.done)
}

// finish ends the stream naturally.
func (s *fakeStream) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	close(s.done)
}

// fail ends the stream with a player error.
func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	close(s.done)
}

func (s *fakeStream) Done() <-chan struct{} { return s.done }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) counts() (pauses, resumes int, stopped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauses, s.resumes, s.stopped
}

type fakePlayer struct {
	startErr error
	started  chan *fakeStream
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{started: make(chan *fakeStream, 16)}
}

func (p *fakePlayer) Start(context.Context, *audio.Clip) (Stream, error) {
	if p.startErr != nil {
		return nil, p.startErr
	}
	s := newFakeStream()
	p.started <- s
	return s, nil
}

// speakerLog records speaker signals.
type speakerLog struct {
	mu  sync.Mutex
	got []string
}

func (l *speakerLog) record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, id)
}

func (l *speakerLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

func clipFor(speaker string) *audio.Clip {
	return &audio.Clip{SpeakerID: speaker, Data: []byte("audio"), Format: audio.FormatWAV}
}

var errDevice = errors.New("no audio device")
