package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randalmurphal/scrumsim/audio"
)

func TestClockPlayer_NaturalEnd(t *testing.T) {
	p := &ClockPlayer{}
	s, err := p.Start(context.Background(), &audio.Clip{Duration: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("clock stream did not finish")
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil", s.Err())
	}
}

func TestClockPlayer_PauseFreezesPosition(t *testing.T) {
	p := &ClockPlayer{}
	s, _ := p.Start(context.Background(), &audio.Clip{Duration: 150 * time.Millisecond})
	cs := s.(*clockStream)

	time.Sleep(40 * time.Millisecond)
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	frozen := cs.Position()

	time.Sleep(200 * time.Millisecond)
	select {
	case <-s.Done():
		t.Fatal("paused stream finished")
	default:
	}
	if got := cs.Position(); got != frozen {
		t.Errorf("Position() moved while paused: %v -> %v", frozen, got)
	}
	if frozen < 30*time.Millisecond || frozen > 150*time.Millisecond {
		t.Errorf("Position() = %v, want about 40ms", frozen)
	}

	resumedAt := time.Now()
	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	<-s.Done()

	// The rest of the clip plays, not the whole clip again.
	if elapsed := time.Since(resumedAt); elapsed >= 150*time.Millisecond {
		t.Errorf("resume took %v, clip restarted", elapsed)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestClockPlayer_Stop(t *testing.T) {
	p := &ClockPlayer{Fallback: time.Hour}
	s, _ := p.Start(context.Background(), &audio.Clip{})

	s.Stop()
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("Stop should close Done")
	}
	if !errors.Is(s.Err(), ErrStopped) {
		t.Errorf("Err() = %v, want ErrStopped", s.Err())
	}
	if err := s.Pause(); err != nil {
		t.Errorf("Pause() after Stop error = %v", err)
	}
}
