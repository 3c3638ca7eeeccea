package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/scrumsim/audio"
	"github.com/randalmurphal/scrumsim/notify"
	"github.com/randalmurphal/scrumsim/playback"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// Resolver produces audio for a turn. A nil clip with a nil error means no
// audio is available. *audio.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, req audio.Request) (*audio.Clip, error)
}

// Config holds the collaborators of a Sequencer. Only Resolver may be left
// nil for a text-only meeting; the other components get defaults.
type Config struct {
	Resolver    Resolver
	Controller  *playback.Controller
	Dispatcher  *sideeffect.Dispatcher
	Recorder    *transcript.Recorder
	Archive     transcript.Archive
	Notifier    notify.Notifier
	Logger      *slog.Logger
	ReadingTime ReadingTime
	Now         func() time.Time
}

// Sequencer plays one meeting at a time.
type Sequencer struct {
	resolver   Resolver
	controller *playback.Controller
	dispatcher *sideeffect.Dispatcher
	recorder   *transcript.Recorder
	archive    transcript.Archive
	notifier   notify.Notifier
	logger     *slog.Logger
	reading    ReadingTime
	now        func() time.Time

	// opMu orders control calls with their controller side.
	opMu sync.Mutex

	mu  sync.Mutex
	cur *session
}

// New creates a sequencer.
func New(cfg Config) *Sequencer {
	s := &Sequencer{
		resolver:   cfg.Resolver,
		controller: cfg.Controller,
		dispatcher: cfg.Dispatcher,
		recorder:   cfg.Recorder,
		archive:    cfg.Archive,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		reading:    cfg.ReadingTime,
		now:        cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.controller == nil {
		s.controller = playback.NewController(playback.WithLogger(s.logger))
	}
	if s.dispatcher == nil {
		s.dispatcher = sideeffect.New(sideeffect.WithLogger(s.logger))
	}
	if s.recorder == nil {
		s.recorder = transcript.NewRecorder()
	}
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Controller returns the playback controller.
func (s *Sequencer) Controller() *playback.Controller { return s.controller }

// Dispatcher returns the side effect dispatcher.
func (s *Sequencer) Dispatcher() *sideeffect.Dispatcher { return s.dispatcher }

// Transcript returns the entries of the current or last session.
func (s *Sequencer) Transcript() []transcript.Entry { return s.recorder.All() }

// Start begins playing sc from its first segment and returns immediately.
// Cancelling ctx cancels the session. Callbacks must not call Start or Wait.
func (s *Sequencer) Start(ctx context.Context, sc *script.Script, reg *script.Registry, cb Callbacks) error {
	return s.start(ctx, sc, reg, "", cb)
}

// StartDocument starts the script of a loaded document.
func (s *Sequencer) StartDocument(ctx context.Context, doc *script.Document, cb Callbacks) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidInput)
	}
	return s.start(ctx, doc.Script, doc.Participants, doc.Kind, cb)
}

func (s *Sequencer) start(ctx context.Context, sc *script.Script, reg *script.Registry, kind string, cb Callbacks) error {
	if sc == nil || reg == nil {
		return fmt.Errorf("%w: script and participants are required", ErrInvalidInput)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	prev := s.cur
	if prev != nil && prev.status.Active() {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	if prev != nil {
		<-prev.done
	}

	s.controller.Reset()
	s.dispatcher.Reset()
	if err := s.recorder.Clear(); err != nil {
		return fmt.Errorf("reset transcript: %w", err)
	}
	s.recorder.Begin()

	runCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		id:        uuid.New(),
		script:    sc,
		reg:       reg,
		kind:      kind,
		cb:        cb,
		status:    StatusRunning,
		startedAt: s.now(),
		ctx:       runCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.cur = sess
	s.mu.Unlock()

	s.archiveStart(sess)
	go s.run(sess)
	return nil
}

// Pause holds the session at the current segment, pausing its audio in
// place.
func (s *Sequencer) Pause() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	sess := s.cur
	if sess == nil || sess.status != StatusRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	sess.status = StatusPaused
	sess.resume = make(chan struct{})
	index := sess.index
	s.mu.Unlock()

	if err := s.controller.Pause(); err != nil {
		s.logger.Warn("failed to pause audio", "session", sess.id, "error", err)
	}
	s.logger.Debug("meeting paused", "session", sess.id, "segment", index)
	return nil
}

// Resume continues a paused session where it stopped.
func (s *Sequencer) Resume() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	sess := s.cur
	if sess == nil || sess.status != StatusPaused {
		s.mu.Unlock()
		return ErrNotPaused
	}
	sess.status = StatusRunning
	close(sess.resume)
	sess.resume = nil
	index := sess.index
	s.mu.Unlock()

	if err := s.controller.Resume(); err != nil {
		s.logger.Warn("failed to resume audio", "session", sess.id, "error", err)
	}
	s.logger.Debug("meeting resumed", "session", sess.id, "segment", index)
	return nil
}

// Cancel ends the session. All audio is stopped before it returns, and the
// session appends no further entries and fires no further side effects.
// Without an active session it still stops all audio and returns
// ErrNotActive.
func (s *Sequencer) Cancel() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	sess := s.cur
	if sess == nil || !sess.status.Active() {
		s.mu.Unlock()
		s.controller.StopAll()
		return ErrNotActive
	}
	sess.cancelled = true
	sess.status = StatusCancelled
	sess.cancel()
	index := sess.index
	s.mu.Unlock()

	stopped := s.controller.StopAll()
	s.logger.Info("meeting cancelled", "session", sess.id, "segment", index, "stopped", stopped)
	return nil
}

// Wait blocks until the current session ends and returns its report. The
// error is the fatal error that ended the session, if any.
func (s *Sequencer) Wait(ctx context.Context) (Report, error) {
	s.mu.Lock()
	sess := s.cur
	s.mu.Unlock()
	if sess == nil {
		return Report{}, ErrNoSession
	}

	select {
	case <-sess.done:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.report, sess.err
}

// Status returns the state of the current session.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return StatusIdle
	}
	return s.cur.status
}

// Snapshot returns a copy of the current session state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	sess := s.cur
	if sess == nil {
		s.mu.Unlock()
		return Snapshot{Status: StatusIdle}
	}
	snap := Snapshot{
		SessionID: sess.id,
		ScriptID:  sess.script.ID(),
		Status:    sess.status,
		Index:     sess.index,
		Total:     sess.script.Len(),
		Cancelled: sess.cancelled,
		StartedAt: sess.startedAt,
	}
	s.mu.Unlock()

	if h := s.controller.Active(); h != nil {
		snap.Handle = h.ID()
	}
	snap.Speaker = s.controller.Speaker()
	return snap
}

func (s *Sequencer) run(sess *session) {
	defer close(sess.done)
	defer sess.cancel()

	s.logger.Info("meeting started",
		"session", sess.id,
		"script", sess.script.ID(),
		"segments", sess.script.Len(),
	)
	s.notify(sess.ctx, sess, notify.Event{
		Type:     notify.EventMeetingStarted,
		Message:  fmt.Sprintf("Meeting %q started", sess.script.Title()),
		Severity: notify.SeverityInfo,
		Metadata: map[string]any{"segments": sess.script.Len()},
	})

	err := s.playAll(sess)
	s.finish(sess, err)
}

func (s *Sequencer) playAll(sess *session) error {
	for i := 0; i < sess.script.Len(); i++ {
		if !s.waitRunnable(sess) {
			return nil
		}

		seg := sess.script.At(i)
		p, ok := sess.reg.Lookup(seg.SpeakerID)
		if !ok {
			return &UnknownSpeakerError{SegmentID: seg.ID, SpeakerID: seg.SpeakerID}
		}

		ok, err := s.appendEntry(sess, seg, p)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		s.speak(sess, seg, p)

		if seg.HasSideEffect() && !s.fire(sess, seg) {
			return nil
		}

		s.mu.Lock()
		stop := s.stoppingLocked(sess)
		if !stop {
			sess.index = i + 1
		}
		s.mu.Unlock()
		if stop {
			return nil
		}
	}
	return nil
}

// stoppingLocked reports whether the session was cancelled. A done parent
// context counts as a cancel.
func (s *Sequencer) stoppingLocked(sess *session) bool {
	if sess.cancelled {
		return true
	}
	if sess.ctx.Err() != nil {
		sess.cancelled = true
		sess.status = StatusCancelled
		return true
	}
	return false
}

// waitRunnable blocks while the session is paused. It returns false once the
// session is cancelled.
func (s *Sequencer) waitRunnable(sess *session) bool {
	for {
		s.mu.Lock()
		if s.stoppingLocked(sess) {
			s.mu.Unlock()
			return false
		}
		if sess.status != StatusPaused {
			s.mu.Unlock()
			return true
		}
		resume := sess.resume
		s.mu.Unlock()

		select {
		case <-resume:
		case <-sess.ctx.Done():
		}
	}
}

func (s *Sequencer) appendEntry(sess *session, seg script.Segment, p script.Participant) (bool, error) {
	s.mu.Lock()
	if s.stoppingLocked(sess) {
		s.mu.Unlock()
		return false, nil
	}
	entry, err := s.recorder.Append(transcript.Entry{
		ID:          seg.ID,
		SpeakerID:   seg.SpeakerID,
		SpeakerName: p.DisplayName,
		Text:        seg.Text,
		Timestamp:   s.now(),
	})
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("segment %s: %w", seg.ID, err)
	}

	s.archiveEntry(sess, entry)
	if sess.cb.OnTranscript != nil {
		sess.cb.OnTranscript(entry)
	}
	return true, nil
}

// speak plays the turn's audio, or its reading time when there is none. It
// returns when the turn is over or the session was cancelled.
func (s *Sequencer) speak(sess *session, seg script.Segment, p script.Participant) {
	ctx := sess.ctx

	var clip *audio.Clip
	if s.resolver != nil {
		c, err := s.resolver.Resolve(ctx, audio.Request{
			SpeakerID:   seg.SpeakerID,
			SpeakerName: p.DisplayName,
			VoiceRef:    p.VoiceRef,
			Text:        seg.Text,
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("audio request rejected", "segment", seg.ID, "speaker", seg.SpeakerID, "error", err)
		}
		clip = c
	}

	// A clip that arrived during a pause waits for resume.
	if !s.waitRunnable(sess) {
		return
	}

	// A clip the player cannot play counts as no audio. The chain is not
	// asked again.
	if !clip.Empty() {
		err := s.controller.PlayClip(ctx, clip)
		if err == nil || errors.Is(err, playback.ErrStopped) || ctx.Err() != nil {
			return
		}
		s.logger.Warn("playback failed",
			"segment", seg.ID,
			"speaker", seg.SpeakerID,
			"provider", clip.Provider,
			"error", err,
		)
	}

	if !s.waitRunnable(sess) {
		return
	}
	err := s.controller.PlaySilence(ctx, seg.SpeakerID, s.reading.For(seg.Text))
	if err != nil && ctx.Err() == nil {
		s.logger.Debug("reading time ended early", "segment", seg.ID, "error", err)
	}
}

// fire dispatches the segment's side effect unless the session was
// cancelled. It returns false when cancelled. The cancellation check runs
// under the dispatcher lock so a Cancel either precedes the claim or sees
// the effect as fired.
func (s *Sequencer) fire(sess *session, seg script.Segment) bool {
	stopped := false
	res, fired := s.dispatcher.DispatchIf(sess.ctx, seg.ID, seg.SideEffectID, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		stopped = s.stoppingLocked(sess)
		return !stopped
	})
	if stopped {
		return false
	}
	if !fired {
		return true
	}

	s.archiveEffect(sess, res)
	if !res.OK() {
		s.notify(sess.ctx, sess, notify.Event{
			Type:      notify.EventSideEffectFailed,
			SegmentID: seg.ID,
			Message:   fmt.Sprintf("Side effect %s failed: %s", res.EffectID, res.Error),
			Severity:  notify.SeverityWarning,
			Metadata:  map[string]any{"effect": res.EffectID},
		})
	}
	if sess.cb.OnSideEffect != nil {
		sess.cb.OnSideEffect(res)
	}
	return true
}

func (s *Sequencer) finish(sess *session, runErr error) {
	s.mu.Lock()
	switch {
	case sess.cancelled:
		sess.status = StatusCancelled
	case runErr != nil:
		sess.status = StatusFailed
		sess.err = runErr
	default:
		sess.status = StatusCompleted
	}
	status := sess.status
	s.mu.Unlock()

	if status != StatusCompleted {
		s.controller.StopAll()
	}
	s.recorder.End()

	ended := s.now()
	report := Report{
		SessionID:       sess.id,
		ScriptID:        sess.script.ID(),
		Transcript:      s.recorder.All(),
		SideEffects:     s.dispatcher.Results(),
		DurationSeconds: ended.Sub(sess.startedAt).Seconds(),
		Cancelled:       status == StatusCancelled,
		StartedAt:       sess.startedAt,
		EndedAt:         ended,
	}

	s.mu.Lock()
	sess.report = report
	s.mu.Unlock()

	s.archiveEnd(sess, status, runErr)

	// The session context is done by now; end events get their own.
	ctx := context.WithoutCancel(sess.ctx)
	meta := map[string]any{
		"entries":  len(report.Transcript),
		"duration": fmt.Sprintf("%.1fs", report.DurationSeconds),
	}

	switch status {
	case StatusCompleted:
		s.logger.Info("meeting completed",
			"session", sess.id,
			"entries", len(report.Transcript),
			"side_effects", len(report.SideEffects),
			"duration", report.DurationSeconds,
		)
		s.notify(ctx, sess, notify.Event{
			Type:     notify.EventMeetingCompleted,
			Message:  fmt.Sprintf("Meeting %q completed", sess.script.Title()),
			Severity: notify.SeverityInfo,
			Metadata: meta,
		})
		if sess.cb.OnComplete != nil {
			sess.cb.OnComplete(report)
		}

	case StatusCancelled:
		s.notify(ctx, sess, notify.Event{
			Type:     notify.EventMeetingCancelled,
			Message:  fmt.Sprintf("Meeting %q cancelled", sess.script.Title()),
			Severity: notify.SeverityInfo,
			Metadata: meta,
		})
		if sess.cb.OnCancel != nil {
			sess.cb.OnCancel(report)
		}

	case StatusFailed:
		s.logger.Error("meeting failed", "session", sess.id, "error", runErr)
		meta["error"] = runErr.Error()
		s.notify(ctx, sess, notify.Event{
			Type:     notify.EventMeetingFailed,
			Message:  fmt.Sprintf("Meeting %q failed", sess.script.Title()),
			Severity: notify.SeverityError,
			Metadata: meta,
		})
		if sess.cb.OnError != nil {
			sess.cb.OnError(runErr, report)
		}
	}
}
