package meeting

import (
	"context"
	"time"

	"github.com/randalmurphal/scrumsim/notify"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// NotifyTimeout bounds each lifecycle notification.
const NotifyTimeout = 5 * time.Second

// notify sends e for sess. Failures are logged.
func (s *Sequencer) notify(ctx context.Context, sess *session, e notify.Event) {
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	e.SessionID = sess.id.String()
	e.ScriptID = sess.script.ID()
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.logger.Warn("notification failed",
			"type", e.Type,
			"session", e.SessionID,
			"error", err,
		)
	}
}

func (s *Sequencer) archiveStart(sess *session) {
	if s.archive == nil {
		return
	}

	var names []string
	for _, p := range sess.reg.Participants() {
		names = append(names, p.DisplayName)
	}
	err := s.archive.StartSession(sess.id.String(), transcript.SessionMetadata{
		ScriptID:     sess.script.ID(),
		Title:        sess.script.Title(),
		Kind:         sess.kind,
		Participants: names,
	})
	if err != nil {
		s.logger.Warn("failed to archive meeting start", "session", sess.id, "error", err)
	}
}

func (s *Sequencer) archiveEntry(sess *session, e transcript.Entry) {
	if s.archive == nil {
		return
	}
	if err := s.archive.RecordEntry(sess.id.String(), e); err != nil {
		s.logger.Warn("failed to archive transcript entry", "session", sess.id, "segment", e.ID, "error", err)
	}
}

func (s *Sequencer) archiveEffect(sess *session, r sideeffect.Result) {
	if s.archive == nil {
		return
	}
	err := s.archive.RecordSideEffect(sess.id.String(), transcript.EffectRecord{
		EffectID:  r.EffectID,
		SegmentID: r.SegmentID,
		Error:     r.Error,
		FiredAt:   r.FiredAt,
	})
	if err != nil {
		s.logger.Warn("failed to archive side effect", "session", sess.id, "effect", r.EffectID, "error", err)
	}
}

func (s *Sequencer) archiveEnd(sess *session, status Status, runErr error) {
	if s.archive == nil {
		return
	}

	var err error
	switch status {
	case StatusFailed:
		err = s.archive.EndSessionWithError(sess.id.String(), runErr)
	case StatusCancelled:
		err = s.archive.EndSession(sess.id.String(), transcript.StatusCanceled)
	default:
		err = s.archive.EndSession(sess.id.String(), transcript.StatusCompleted)
	}
	if err != nil {
		s.logger.Warn("failed to archive meeting end", "session", sess.id, "error", err)
	}
}
