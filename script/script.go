package script

import (
	"fmt"
	"strings"
)

// Segment is one atomic spoken turn.
type Segment struct {
	ID           string `yaml:"id" json:"id"`
	SpeakerID    string `yaml:"speaker" json:"speakerId"`
	Text         string `yaml:"text" json:"text"`
	SideEffectID string `yaml:"side_effect,omitempty" json:"sideEffectId,omitempty"`
}

// HasSideEffect reports whether reaching this segment should fire a side effect.
func (s Segment) HasSideEffect() bool {
	return s.SideEffectID != ""
}

// Script is an immutable ordered sequence of segments. Order is the only
// sequencing authority: there is no branching and no looping.
type Script struct {
	id       string
	title    string
	segments []Segment
	index    map[string]int
}

// New creates a script, validating that every segment has an ID, a speaker
// and text, and that segment IDs are unique.
func New(id, title string, segments []Segment) (*Script, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyScript
	}

	s := &Script{
		id:       id,
		title:    title,
		segments: make([]Segment, len(segments)),
		index:    make(map[string]int, len(segments)),
	}

	for i, seg := range segments {
		seg.ID = strings.TrimSpace(seg.ID)
		seg.SpeakerID = strings.TrimSpace(seg.SpeakerID)
		seg.SideEffectID = strings.TrimSpace(seg.SideEffectID)

		if seg.ID == "" {
			return nil, fmt.Errorf("%w: segment %d has no id", ErrInvalidSegment, i)
		}
		if seg.SpeakerID == "" {
			return nil, fmt.Errorf("%w: segment %q has no speaker", ErrInvalidSegment, seg.ID)
		}
		if strings.TrimSpace(seg.Text) == "" {
			return nil, fmt.Errorf("%w: segment %q has no text", ErrInvalidSegment, seg.ID)
		}
		if _, exists := s.index[seg.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSegment, seg.ID)
		}

		s.index[seg.ID] = i
		s.segments[i] = seg
	}

	return s, nil
}

// MustNew is like New but panics on error. Intended for tests and static scripts.
func MustNew(id, title string, segments []Segment) *Script {
	s, err := New(id, title, segments)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the script identifier.
func (s *Script) ID() string { return s.id }

// Title returns the human-readable title.
func (s *Script) Title() string { return s.title }

// Len returns the number of segments.
func (s *Script) Len() int { return len(s.segments) }

// At returns the segment at index i.
func (s *Script) At(i int) Segment { return s.segments[i] }

// Segments returns a copy of the segments in order.
func (s *Script) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// IndexOf returns the position of the segment with the given ID.
func (s *Script) IndexOf(segmentID string) (int, bool) {
	i, ok := s.index[segmentID]
	return i, ok
}

// SpeakerIDs returns the distinct speaker IDs in order of first appearance.
func (s *Script) SpeakerIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, seg := range s.segments {
		if !seen[seg.SpeakerID] {
			seen[seg.SpeakerID] = true
			ids = append(ids, seg.SpeakerID)
		}
	}
	return ids
}

// SideEffectIDs returns the distinct side effect IDs in segment order.
func (s *Script) SideEffectIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, seg := range s.segments {
		if seg.HasSideEffect() && !seen[seg.SideEffectID] {
			seen[seg.SideEffectID] = true
			ids = append(ids, seg.SideEffectID)
		}
	}
	return ids
}
