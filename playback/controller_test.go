package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/randalmurphal/scrumsim/audio"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestController(player Player, log *speakerLog, opts ...ControllerOption) *Controller {
	opts = append([]ControllerOption{
		WithPlayer(player),
		WithLogger(quietLogger),
		WithSpeakerFunc(log.record),
	}, opts...)
	return NewController(opts...)
}

func playAsync(ctx context.Context, c *Controller, h *Handle) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- c.Play(ctx, h) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return")
		return nil
	}
}

func waitStream(t *testing.T, p *fakePlayer) *fakeStream {
	t.Helper()
	select {
	case s := <-p.started:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not started")
		return nil
	}
}

func TestController_PlayNaturalEnd(t *testing.T) {
	player := newFakePlayer()
	log := &speakerLog{}
	c := newTestController(player, log)

	h, err := c.Open(clipFor("sarah"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	errc := playAsync(context.Background(), c, h)

	s := waitStream(t, player)
	if c.Active() != h {
		t.Error("Active() should be the playing handle")
	}
	s.finish()

	if err := waitErr(t, errc); err != nil {
		t.Errorf("Play() error = %v", err)
	}
	if h.State() != StateFinished {
		t.Errorf("State() = %s, want finished", h.State())
	}
	if c.Active() != nil {
		t.Error("Active() should be nil after the end")
	}
	if got, want := log.snapshot(), []string{"sarah", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("speaker signals = %q, want %q", got, want)
	}
}

func TestController_AtMostOneActive(t *testing.T) {
	player := newFakePlayer()
	c := newTestController(player, &speakerLog{})

	h1, _ := c.Open(clipFor("sarah"))
	errc1 := playAsync(context.Background(), c, h1)
	s1 := waitStream(t, player)

	h2, _ := c.Open(clipFor("victor"))
	errc2 := playAsync(context.Background(), c, h2)
	s2 := waitStream(t, player)

	if err := waitErr(t, errc1); !errors.Is(err, ErrStopped) {
		t.Errorf("first Play() error = %v, want ErrStopped", err)
	}
	if _, _, stopped := s1.counts(); !stopped {
		t.Error("first stream should be stopped")
	}
	if c.Active() != h2 {
		t.Error("second handle should be active")
	}

	s2.finish()
	if err := waitErr(t, errc2); err != nil {
		t.Errorf("second Play() error = %v", err)
	}
}

func TestController_PauseResumeInPlace(t *testing.T) {
	player := newFakePlayer()
	log := &speakerLog{}
	c := newTestController(player, log)

	h, _ := c.Open(clipFor("victor"))
	errc := playAsync(context.Background(), c, h)
	s := waitStream(t, player)

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if h.State() != StatePaused {
		t.Errorf("State() = %s, want paused", h.State())
	}
	if c.Speaker() != "" {
		t.Errorf("Speaker() = %q while paused, want empty", c.Speaker())
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if h.State() != StatePlaying {
		t.Errorf("State() = %s, want playing", h.State())
	}

	s.finish()
	if err := waitErr(t, errc); err != nil {
		t.Errorf("Play() error = %v", err)
	}

	pauses, resumes, stopped := s.counts()
	if pauses != 1 || resumes != 1 || stopped {
		t.Errorf("stream pauses=%d resumes=%d stopped=%v, want 1/1/false", pauses, resumes, stopped)
	}
	select {
	case extra := <-player.started:
		t.Errorf("resume restarted the clip: %v", extra)
	default:
	}

	want := []string{"victor", "", "victor", ""}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("speaker signals = %q, want %q", got, want)
	}
}

func TestController_PauseResumeIdle(t *testing.T) {
	c := NewController(WithLogger(quietLogger))

	if err := c.Pause(); err != nil {
		t.Errorf("Pause() on idle controller error = %v", err)
	}
	if !c.Held() {
		t.Error("controller should be held after Pause")
	}
	if err := c.Resume(); err != nil {
		t.Errorf("Resume() on idle controller error = %v", err)
	}
	if c.Held() {
		t.Error("Resume should release the hold")
	}
}

func TestController_HeldHandleStartsPaused(t *testing.T) {
	c := NewController(WithLogger(quietLogger))

	if err := c.Pause(); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- c.PlaySilence(context.Background(), "priya", 30*time.Millisecond) }()

	deadline := time.Now().Add(time.Second)
	for c.Active() == nil || c.Active().State() != StatePaused {
		if time.Now().After(deadline) {
			t.Fatal("silent handle did not start paused")
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case <-errc:
		t.Fatal("held handle finished while paused")
	case <-time.After(100 * time.Millisecond):
	}

	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	if err := waitErr(t, errc); err != nil {
		t.Errorf("PlaySilence() error = %v", err)
	}
}

func TestController_StopAllSweepsIssuedHandles(t *testing.T) {
	player := newFakePlayer()
	log := &speakerLog{}
	c := newTestController(player, log)

	if n := c.StopAll(); n != 0 {
		t.Errorf("StopAll() on idle controller = %d, want 0", n)
	}

	pending1, _ := c.Open(clipFor("a"))
	pending2, _ := c.Open(clipFor("b"))
	playing, _ := c.Open(clipFor("c"))
	errc := playAsync(context.Background(), c, playing)
	s := waitStream(t, player)

	if n := c.StopAll(); n != 3 {
		t.Errorf("StopAll() = %d, want 3", n)
	}
	if err := waitErr(t, errc); !errors.Is(err, ErrStopped) {
		t.Errorf("Play() error = %v, want ErrStopped", err)
	}
	if _, _, stopped := s.counts(); !stopped {
		t.Error("active stream should be stopped")
	}

	for _, h := range []*Handle{pending1, pending2} {
		if h.State() != StateStopped {
			t.Errorf("pending handle state = %s, want stopped", h.State())
		}
		if err := c.Play(context.Background(), h); !errors.Is(err, ErrHandleClosed) {
			t.Errorf("Play(stopped handle) error = %v, want ErrHandleClosed", err)
		}
	}
	if c.Speaker() != "" {
		t.Errorf("Speaker() = %q after StopAll", c.Speaker())
	}
}

func TestController_StartFailure(t *testing.T) {
	player := newFakePlayer()
	player.startErr = errDevice
	c := newTestController(player, &speakerLog{})

	err := c.PlayClip(context.Background(), clipFor("sarah"))
	if !errors.Is(err, ErrStartFailed) || !errors.Is(err, errDevice) {
		t.Errorf("PlayClip() error = %v, want ErrStartFailed wrapping device error", err)
	}
	if c.Active() != nil {
		t.Error("failed handle should not stay active")
	}
}

func TestController_StreamFailure(t *testing.T) {
	player := newFakePlayer()
	c := newTestController(player, &speakerLog{})

	h, _ := c.Open(clipFor("sarah"))
	errc := playAsync(context.Background(), c, h)
	waitStream(t, player).fail(errDevice)

	err := waitErr(t, errc)
	if !errors.Is(err, errDevice) || errors.Is(err, ErrStopped) {
		t.Errorf("Play() error = %v, want the device error", err)
	}
	if h.State() != StateFailed {
		t.Errorf("State() = %s, want failed", h.State())
	}
	if c.Active() != nil {
		t.Error("failed handle should not stay active")
	}
}

func TestController_ContextCancel(t *testing.T) {
	player := newFakePlayer()
	c := newTestController(player, &speakerLog{})

	ctx, cancel := context.WithCancel(context.Background())
	h, _ := c.Open(clipFor("sarah"))
	errc := playAsync(ctx, c, h)
	s := waitStream(t, player)

	cancel()
	if err := waitErr(t, errc); !errors.Is(err, context.Canceled) {
		t.Errorf("Play() error = %v, want context.Canceled", err)
	}
	if _, _, stopped := s.counts(); !stopped {
		t.Error("stream should be stopped on cancel")
	}
}

func TestController_ForeignHandle(t *testing.T) {
	a := NewController(WithLogger(quietLogger))
	b := NewController(WithLogger(quietLogger))

	h, _ := a.Open(clipFor("sarah"))
	if err := b.Play(context.Background(), h); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Play(foreign) error = %v, want ErrUnknownHandle", err)
	}
	if _, err := a.Open(clipFor("")); err != nil {
		t.Errorf("Open() error = %v", err)
	}
	if _, err := a.Open(&audio.Clip{}); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Open(empty) error = %v, want ErrNoAudio", err)
	}
}

func TestController_BoundedRegistry(t *testing.T) {
	c := NewController(WithLogger(quietLogger), WithMaxHandles(3))

	var handles []*Handle
	for i := 0; i < 5; i++ {
		h, _ := c.Open(clipFor("x"))
		handles = append(handles, h)
	}
	if c.Issued() > 3 {
		t.Errorf("Issued() = %d, want <= 3", c.Issued())
	}
	if handles[0].State() != StateStopped {
		t.Errorf("oldest handle state = %s, want stopped", handles[0].State())
	}

	c.Reset()
	if c.Issued() != 0 {
		t.Errorf("Issued() after Reset = %d, want 0", c.Issued())
	}
}
