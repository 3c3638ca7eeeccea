package script

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Participant is a registry entry resolved by speaker ID. VoiceRef is an
// opaque provider-specific key passed through to audio providers.
type Participant struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"name" json:"displayName"`
	VoiceRef    string `yaml:"voice,omitempty" json:"voiceRef,omitempty"`
	Role        string `yaml:"role,omitempty" json:"role,omitempty"`
}

// Registry resolves participants by speaker ID. It is read-only once built.
type Registry struct {
	byID  map[string]Participant
	order []string
}

// NewRegistry builds a registry. Participants without a display name get one
// derived from their ID ("victor" becomes "Victor").
func NewRegistry(participants ...Participant) (*Registry, error) {
	r := &Registry{byID: make(map[string]Participant, len(participants))}
	title := cases.Title(language.English)

	for _, p := range participants {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("participant has no id")
		}
		if _, exists := r.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
		}
		if strings.TrimSpace(p.DisplayName) == "" {
			p.DisplayName = title.String(strings.NewReplacer("-", " ", "_", " ").Replace(p.ID))
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	return r, nil
}

// Lookup returns the participant for a speaker ID.
func (r *Registry) Lookup(speakerID string) (Participant, bool) {
	if r == nil {
		return Participant{}, false
	}
	p, ok := r.byID[speakerID]
	return p, ok
}

// Participants returns all participants in registration order.
func (r *Registry) Participants() []Participant {
	if r == nil {
		return nil
	}
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
