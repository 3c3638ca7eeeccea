package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/scrumsim/audio"
)

// DefaultMaxHandles bounds the per-session handle registry.
const DefaultMaxHandles = 64

// SpeakerFunc receives the audible speaker, or "" when nobody is speaking.
// It must not call back into the Controller.
type SpeakerFunc func(speakerID string)

// Controller owns all playback for one session.
type Controller struct {
	player     Player
	clock      Player
	logger     *slog.Logger
	onSpeaker  SpeakerFunc
	maxHandles int

	mu      sync.Mutex
	handles map[string]*Handle
	order   []string
	active  *Handle
	held    bool

	sigMu     sync.Mutex
	published string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPlayer sets the player for audible clips. Defaults to a ClockPlayer.
func WithPlayer(p Player) ControllerOption {
	return func(c *Controller) {
		c.player = p
	}
}

// WithClock sets the player used for silent handles.
func WithClock(p Player) ControllerOption {
	return func(c *Controller) {
		c.clock = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSpeakerFunc sets the speaker signal sink.
func WithSpeakerFunc(fn SpeakerFunc) ControllerOption {
	return func(c *Controller) {
		c.onSpeaker = fn
	}
}

// WithMaxHandles bounds the handle registry.
func WithMaxHandles(n int) ControllerOption {
	return func(c *Controller) {
		c.maxHandles = n
	}
}

// NewController creates a controller.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		logger:     slog.Default(),
		maxHandles: DefaultMaxHandles,
		handles:    make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = &ClockPlayer{}
	}
	if c.player == nil {
		c.player = c.clock
	}
	if c.maxHandles <= 0 {
		c.maxHandles = DefaultMaxHandles
	}
	return c
}

// SetSpeakerFunc replaces the speaker signal sink.
func (c *Controller) SetSpeakerFunc(fn SpeakerFunc) {
	c.sigMu.Lock()
	c.onSpeaker = fn
	c.sigMu.Unlock()
}

// Open issues a handle for clip and registers it with the controller.
func (c *Controller) Open(clip *audio.Clip) (*Handle, error) {
	if clip.Empty() {
		return nil, ErrNoAudio
	}
	return c.open(clip, clip.SpeakerID, false), nil
}

func (c *Controller) open(clip *audio.Clip, speakerID string, silent bool) *Handle {
	id, err := nanoid.New()
	if err != nil {
		id = fmt.Sprintf("h%d", time.Now().UnixNano())
	}

	h := &Handle{
		id:        id,
		clip:      clip,
		speakerID: speakerID,
		silent:    silent,
		ctl:       c,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.evictLocked()
	c.handles[id] = h
	c.order = append(c.order, id)
	c.mu.Unlock()
	return h
}

// evictLocked makes room in the registry, dropping closed handles first and
// stopping the oldest idle one if that is not enough.
func (c *Controller) evictLocked() {
	if len(c.order) < c.maxHandles {
		return
	}

	kept := c.order[:0]
	for _, id := range c.order {
		if c.handles[id].state.Terminal() {
			delete(c.handles, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept

	for i := 0; len(c.order) >= c.maxHandles && i < len(c.order); {
		victim := c.handles[c.order[i]]
		if victim == c.active {
			i++
			continue
		}
		c.logger.Warn("evicting unplayed handle", "handle", victim.id)
		victim.close(StateStopped)
		delete(c.handles, victim.id)
		c.order = append(c.order[:i], c.order[i+1:]...)
	}
}

// Play makes h the active handle and blocks until it ends. Any previously
// active handle is stopped first. A nil error means the clip played to the
// end; ErrStopped means it was interrupted. Any other error is a player
// failure, either at start (ErrStartFailed) or while the stream ran.
func (c *Controller) Play(ctx context.Context, h *Handle) error {
	c.mu.Lock()
	if c.handles[h.id] != h {
		c.mu.Unlock()
		return ErrUnknownHandle
	}
	if h.state != StatePending {
		c.mu.Unlock()
		return ErrHandleClosed
	}
	prev := c.active
	c.active = h
	var prevStream Stream
	if prev != nil && prev.close(StateStopped) {
		prevStream = prev.stream
	}
	c.mu.Unlock()

	if prevStream != nil {
		prevStream.Stop()
	}

	player := c.player
	if h.silent {
		player = c.clock
	}
	stream, err := player.Start(ctx, h.clip)
	if err != nil {
		c.mu.Lock()
		h.close(StateFailed)
		if c.active == h {
			c.active = nil
		}
		c.mu.Unlock()
		c.publish()
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	c.mu.Lock()
	if c.active != h || h.state.Terminal() {
		// Stopped while starting.
		c.mu.Unlock()
		stream.Stop()
		return ErrStopped
	}
	h.stream = stream
	h.state = StatePlaying
	if c.held {
		if err := stream.Pause(); err != nil {
			c.logger.Warn("failed to hold new stream", "handle", h.id, "error", err)
		} else {
			h.state = StatePaused
		}
	}
	c.mu.Unlock()
	c.publish()

	select {
	case <-stream.Done():
	case <-ctx.Done():
		stream.Stop()
		<-stream.Done()
	}

	c.mu.Lock()
	state := StateFinished
	if err := stream.Err(); errors.Is(err, ErrStopped) || (err != nil && ctx.Err() != nil) {
		state = StateStopped
	} else if err != nil {
		state = StateFailed
	}
	h.close(state)
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()
	c.publish()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.Err(); err != nil {
		if errors.Is(err, ErrStopped) {
			return ErrStopped
		}
		return err
	}
	return nil
}

// PlayClip opens and plays clip.
func (c *Controller) PlayClip(ctx context.Context, clip *audio.Clip) error {
	h, err := c.Open(clip)
	if err != nil {
		return err
	}
	return c.Play(ctx, h)
}

// PlaySilence plays d of timed silence attributed to speakerID. It pauses,
// resumes and stops like any other handle.
func (c *Controller) PlaySilence(ctx context.Context, speakerID string, d time.Duration) error {
	clip := &audio.Clip{SpeakerID: speakerID, Duration: d}
	return c.Play(ctx, c.open(clip, speakerID, true))
}

// Pause pauses the active handle in place. With nothing active it is a
// no-op, but the controller stays held: a handle started before Resume begins
// paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	c.held = true
	h := c.active
	if h == nil || h.stream == nil || h.state != StatePlaying {
		c.mu.Unlock()
		return nil
	}
	if err := h.stream.Pause(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("pause %s: %w", h.id, err)
	}
	h.state = StatePaused
	c.mu.Unlock()

	c.publish()
	return nil
}

// Resume resumes the active handle where it paused and releases the hold.
// With nothing active it only releases the hold.
func (c *Controller) Resume() error {
	c.mu.Lock()
	c.held = false
	h := c.active
	if h == nil || h.stream == nil || h.state != StatePaused {
		c.mu.Unlock()
		return nil
	}
	if err := h.stream.Resume(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("resume %s: %w", h.id, err)
	}
	h.state = StatePlaying
	c.mu.Unlock()

	c.publish()
	return nil
}

// StopAll stops every handle this controller issued that has not ended, and
// releases any hold. It is safe to call at any time. It returns the number
// of handles stopped.
func (c *Controller) StopAll() int {
	c.mu.Lock()
	var streams []Stream
	n := 0
	for _, id := range c.order {
		h := c.handles[id]
		if h.close(StateStopped) {
			n++
			if h.stream != nil {
				streams = append(streams, h.stream)
			}
		}
	}
	c.active = nil
	c.held = false
	c.mu.Unlock()

	for _, s := range streams {
		s.Stop()
	}
	c.publish()

	if n > 0 {
		c.logger.Debug("stopped all playback", "handles", n)
	}
	return n
}

// Reset stops everything and forgets all issued handles. Call it between
// sessions.
func (c *Controller) Reset() {
	c.StopAll()
	c.mu.Lock()
	c.handles = make(map[string]*Handle)
	c.order = nil
	c.mu.Unlock()
}

// Active returns the active handle, if any.
func (c *Controller) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Held reports whether the controller is paused.
func (c *Controller) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// Issued returns the number of handles in the registry.
func (c *Controller) Issued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Speaker returns the last published speaker.
func (c *Controller) Speaker() string {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	return c.published
}

// publish emits the current speaker if it changed. The value is read under
// sigMu so concurrent publishes cannot reorder.
func (c *Controller) publish() {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()

	c.mu.Lock()
	speaker := ""
	if h := c.active; h != nil && h.state == StatePlaying {
		speaker = h.speakerID
	}
	c.mu.Unlock()

	if speaker == c.published {
		return
	}
	c.published = speaker
	if c.onSpeaker != nil {
		c.onSpeaker(speaker)
	}
}
