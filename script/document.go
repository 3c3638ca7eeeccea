package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Effect actions understood by board adapters.
const (
	ActionMove = "move"
	ActionOpen = "open"
)

// EffectBinding binds a side effect ID to a board action.
type EffectBinding struct {
	ID     string `yaml:"id" json:"id"`
	Action string `yaml:"action" json:"action"`
	Item   string `yaml:"item" json:"item"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
}

// Document is a parsed script file.
type Document struct {
	Script       *Script
	Participants *Registry
	Effects      []EffectBinding
	Kind         string
	Description  string
}

// Effect returns the binding for a side effect ID.
func (d *Document) Effect(id string) (EffectBinding, bool) {
	for _, e := range d.Effects {
		if e.ID == id {
			return e, true
		}
	}
	return EffectBinding{}, false
}

// documentFile is the on-disk YAML shape.
type documentFile struct {
	ID           string          `yaml:"id"`
	Title        string          `yaml:"title"`
	Kind         string          `yaml:"kind"`
	Description  string          `yaml:"description,omitempty"`
	Participants []Participant   `yaml:"participants"`
	Effects      []EffectBinding `yaml:"effects,omitempty"`
	Segments     []Segment       `yaml:"segments"`
}

// Parse decodes a YAML script document.
func Parse(r io.Reader) (*Document, error) {
	var f documentFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	sc, err := New(f.ID, f.Title, f.Segments)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", f.ID, err)
	}

	reg, err := NewRegistry(f.Participants...)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", f.ID, err)
	}

	seen := make(map[string]bool, len(f.Effects))
	for _, e := range f.Effects {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("script %s: effect binding has no id", f.ID)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("script %s: duplicate effect binding %s", f.ID, e.ID)
		}
		seen[e.ID] = true
		switch e.Action {
		case ActionMove:
			if e.Column == "" {
				return nil, fmt.Errorf("script %s: move effect %s has no column", f.ID, e.ID)
			}
		case ActionOpen:
		default:
			return nil, fmt.Errorf("script %s: effect %s has unknown action %q", f.ID, e.ID, e.Action)
		}
	}

	return &Document{
		Script:       sc,
		Participants: reg,
		Effects:      f.Effects,
		Kind:         f.Kind,
		Description:  f.Description,
	}, nil
}

// ParseBytes decodes a YAML script document from memory.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Validate checks a document ahead of playback. It reports every segment
// whose speaker is not registered and every side effect with no binding.
// Playback treats an unknown speaker as fatal when it reaches the segment;
// this lets authors catch the problem earlier.
func Validate(doc *Document) []error {
	var errs []error
	for _, seg := range doc.Script.segments {
		if _, ok := doc.Participants.Lookup(seg.SpeakerID); !ok {
			errs = append(errs, fmt.Errorf("%w: segment %s references %q", ErrUnknownSpeaker, seg.ID, seg.SpeakerID))
		}
	}
	for _, id := range doc.Script.SideEffectIDs() {
		if _, ok := doc.Effect(id); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnboundSideEffect, id))
		}
	}
	return errs
}
