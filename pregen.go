package scrumsim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/scrumsim/audio"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/script"
)

// ErrNoSource indicates pre-generation with no available audio source.
var ErrNoSource = errors.New("no audio source available for pre-generation")

// PregenStatus is the outcome for one utterance.
type PregenStatus string

// Pre-generation outcomes.
const (
	PregenCached    PregenStatus = "cached"
	PregenGenerated PregenStatus = "generated"
	PregenFailed    PregenStatus = "failed"
)

// PregenResult reports one utterance.
type PregenResult struct {
	SegmentID string
	Speaker   string
	Text      string
	Status    PregenStatus
	Err       error
}

// PregenSummary counts outcomes across a script.
type PregenSummary struct {
	Cached    int
	Generated int
	Failed    int
}

// Pregenerate fills the cache for every utterance of doc from the speech
// gateway.
func (s *Services) Pregenerate(ctx context.Context, doc *script.Document, progress func(PregenResult)) (PregenSummary, error) {
	return Pregenerate(ctx, s.Cache, s.Synth, doc, progress)
}

// Pregenerate asks source for each utterance of doc that cache does not hold
// and stores the result. Repeated (speaker, text) pairs are generated once.
// Individual failures are reported through progress and counted; only a
// cancelled context or an unusable source stops the run.
func Pregenerate(ctx context.Context, cache *audio.CacheProvider, source audio.Provider, doc *script.Document, progress func(PregenResult)) (PregenSummary, error) {
	var sum PregenSummary
	if doc == nil || doc.Script == nil || doc.Participants == nil {
		return sum, fmt.Errorf("%w: no script", meeting.ErrInvalidInput)
	}
	if source == nil || !source.Available() {
		return sum, ErrNoSource
	}
	if progress == nil {
		progress = func(PregenResult) {}
	}

	seen := make(map[string]bool)
	for _, seg := range doc.Script.Segments() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		p, ok := doc.Participants.Lookup(seg.SpeakerID)
		if !ok {
			return sum, fmt.Errorf("segment %s: %w: %q", seg.ID, script.ErrUnknownSpeaker, seg.SpeakerID)
		}
		res := PregenResult{SegmentID: seg.ID, Speaker: p.DisplayName, Text: seg.Text}

		key := audio.CacheKey(p.DisplayName, seg.Text)
		if seen[key] || cache.Contains(p.DisplayName, seg.Text) {
			seen[key] = true
			res.Status = PregenCached
			sum.Cached++
			progress(res)
			continue
		}

		req := audio.Request{
			SpeakerID:   p.ID,
			SpeakerName: p.DisplayName,
			VoiceRef:    p.VoiceRef,
			Text:        seg.Text,
		}
		if err := generate(ctx, cache, source, req); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			res.Status = PregenFailed
			res.Err = err
			sum.Failed++
			progress(res)
			continue
		}

		seen[key] = true
		res.Status = PregenGenerated
		sum.Generated++
		progress(res)
	}
	return sum, nil
}

func generate(ctx context.Context, cache *audio.CacheProvider, source audio.Provider, req audio.Request) error {
	clip, err := source.Attempt(ctx, req)
	if err != nil {
		return err
	}
	if clip.Empty() {
		return audio.ErrEmptyAudio
	}

	data := clip.Data
	if len(data) == 0 {
		rc, err := clip.Open()
		if err != nil {
			return err
		}
		data, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read clip: %w", err)
		}
	}

	_, err = cache.Add(req.SpeakerName, req.Text, clip.Format, data)
	return err
}
