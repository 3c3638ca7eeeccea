package playback

import (
	"context"
	"sync"
	"time"

	"github.com/randalmurphal/scrumsim/audio"
)

// Stream is one playing clip.
type Stream interface {
	Pause() error
	Resume() error
	// Stop ends the stream. It is safe to call more than once.
	Stop()
	// Done is closed when the stream ends for any reason.
	Done() <-chan struct{}
	// Err is nil after a natural end and ErrStopped after Stop.
	Err() error
}

// Player starts streams.
type Player interface {
	Start(ctx context.Context, clip *audio.Clip) (Stream, error)
}

// DefaultFallbackDuration is used by ClockPlayer for clips of unknown length.
const DefaultFallbackDuration = 2 * time.Second

// ClockPlayer plays a clip by waiting out its duration. Pausing freezes the
// remaining time.
type ClockPlayer struct {
	// Fallback is used when a clip has no duration.
	Fallback time.Duration
	// Now overrides the clock for tests.
	Now func() time.Time
}

// Start implements Player.
func (p *ClockPlayer) Start(_ context.Context, clip *audio.Clip) (Stream, error) {
	d := clip.Duration
	if d <= 0 {
		d = p.Fallback
		if d <= 0 {
			d = DefaultFallbackDuration
		}
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}

	s := &clockStream{
		total:     d,
		remaining: d,
		startedAt: now(),
		now:       now,
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.timer = time.AfterFunc(d, func() { s.finish(nil) })
	s.mu.Unlock()
	return s, nil
}

type clockStream struct {
	mu        sync.Mutex
	total     time.Duration
	remaining time.Duration
	startedAt time.Time
	timer     *time.Timer
	paused    bool
	finished  bool
	err       error
	now       func() time.Time
	done      chan struct{}
}

func (s *clockStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.finished {
		return nil
	}
	if !s.timer.Stop() {
		// Timer already fired; finish is about to run.
		return nil
	}
	s.remaining -= s.now().Sub(s.startedAt)
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.paused = true
	return nil
}

func (s *clockStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.finished {
		return nil
	}
	s.paused = false
	s.startedAt = s.now()
	s.timer = time.AfterFunc(s.remaining, func() { s.finish(nil) })
	return nil
}

func (s *clockStream) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.finish(ErrStopped)
}

// Position reports how much of the clip has played.
func (s *clockStream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s.total - s.remaining
	}
	if s.paused {
		return s.total - s.remaining
	}
	played := s.total - s.remaining + s.now().Sub(s.startedAt)
	if played > s.total {
		played = s.total
	}
	return played
}

func (s *clockStream) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	if err == nil {
		s.remaining = 0
	} else if !s.paused {
		s.remaining -= s.now().Sub(s.startedAt)
	}
	close(s.done)
}

func (s *clockStream) Done() <-chan struct{} { return s.done }

func (s *clockStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
