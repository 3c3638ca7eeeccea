package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/randalmurphal/scrumsim/audio"
)

// DefaultPlayerCommand plays a file with ffplay. {file} is replaced by the
// clip path.
var DefaultPlayerCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "{file}"}

// ExecPlayer plays clips through an external command. Pause and resume
// suspend the process where the platform supports it.
type ExecPlayer struct {
	Command []string
	TempDir string
	Logger  *slog.Logger
}

// Start implements Player. Clips held in memory are written to a temp file
// that is removed when the stream ends.
func (p *ExecPlayer) Start(_ context.Context, clip *audio.Clip) (Stream, error) {
	command := p.Command
	if len(command) == 0 {
		command = DefaultPlayerCommand
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := clip.Path
	cleanup := func() {}
	if len(clip.Data) > 0 {
		ext := string(clip.Format)
		if ext == "" {
			ext = "audio"
		}
		f, err := os.CreateTemp(p.TempDir, "scrumsim-play-*."+ext)
		if err != nil {
			return nil, fmt.Errorf("stage clip: %w", err)
		}
		if _, err := f.Write(clip.Data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, fmt.Errorf("stage clip: %w", err)
		}
		f.Close()
		path = f.Name()
		cleanup = func() { os.Remove(path) }
	}
	if path == "" {
		return nil, ErrNoAudio
	}

	args := make([]string, 0, len(command)-1)
	for _, a := range command[1:] {
		args = append(args, strings.ReplaceAll(a, "{file}", path))
	}

	// The controller owns cancellation through Stop, so the process is not
	// bound to ctx.
	cmd := exec.Command(command[0], args...)
	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, err
	}

	s := &execStream{
		cmd:     cmd,
		done:    make(chan struct{}),
		cleanup: cleanup,
		logger:  logger,
	}
	go s.wait()
	return s, nil
}

type execStream struct {
	cmd     *exec.Cmd
	cleanup func()
	logger  *slog.Logger

	mu      sync.Mutex
	paused  bool
	stopped bool
	exited  bool
	err     error
	done    chan struct{}
}

func (s *execStream) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	s.exited = true
	switch {
	case s.stopped:
		s.err = ErrStopped
	case err != nil:
		s.err = fmt.Errorf("player exited: %w", err)
	}
	s.mu.Unlock()

	s.cleanup()
	close(s.done)
}

func (s *execStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.exited || s.stopped {
		return nil
	}
	if err := suspend(s.cmd.Process); err != nil {
		return err
	}
	s.paused = true
	return nil
}

func (s *execStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.exited || s.stopped {
		return nil
	}
	if err := resume(s.cmd.Process); err != nil {
		return err
	}
	s.paused = false
	return nil
}

func (s *execStream) Stop() {
	s.mu.Lock()
	if s.stopped || s.exited {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.paused {
		_ = resume(s.cmd.Process)
		s.paused = false
	}
	err := s.cmd.Process.Kill()
	s.mu.Unlock()

	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("failed to kill player", "pid", s.cmd.Process.Pid, "error", err)
	}
}

func (s *execStream) Done() <-chan struct{} { return s.done }

func (s *execStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
