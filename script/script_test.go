package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	sc, err := New("demo", "Demo", []Segment{
		{ID: "s1", SpeakerID: "sarah", Text: "Hello"},
		{ID: "s2", SpeakerID: "victor", Text: "Hi", SideEffectID: "open-board"},
		{ID: "s3", SpeakerID: "sarah", Text: "Let's begin"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if sc.Len() != 3 {
		t.Errorf("Len() = %d, want 3", sc.Len())
	}
	if got := sc.At(1).SideEffectID; got != "open-board" {
		t.Errorf("At(1).SideEffectID = %q, want %q", got, "open-board")
	}
	if i, ok := sc.IndexOf("s3"); !ok || i != 2 {
		t.Errorf("IndexOf(s3) = %d, %v, want 2, true", i, ok)
	}
	if got := strings.Join(sc.SpeakerIDs(), ","); got != "sarah,victor" {
		t.Errorf("SpeakerIDs() = %q, want %q", got, "sarah,victor")
	}
	if got := sc.SideEffectIDs(); len(got) != 1 || got[0] != "open-board" {
		t.Errorf("SideEffectIDs() = %v, want [open-board]", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		wantErr  error
	}{
		{"empty", nil, ErrEmptyScript},
		{"missing id", []Segment{{SpeakerID: "a", Text: "x"}}, ErrInvalidSegment},
		{"missing speaker", []Segment{{ID: "1", Text: "x"}}, ErrInvalidSegment},
		{"blank text", []Segment{{ID: "1", SpeakerID: "a", Text: "  "}}, ErrInvalidSegment},
		{"duplicate id", []Segment{
			{ID: "1", SpeakerID: "a", Text: "x"},
			{ID: "1", SpeakerID: "b", Text: "y"},
		}, ErrDuplicateSegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", "Bad", tt.segments)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScript_SegmentsIsCopy(t *testing.T) {
	sc := MustNew("demo", "Demo", []Segment{{ID: "s1", SpeakerID: "a", Text: "x"}})

	segs := sc.Segments()
	segs[0].Text = "mutated"

	if sc.At(0).Text != "x" {
		t.Error("Segments() should return a copy")
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(
		Participant{ID: "sarah"},
		Participant{ID: "product_owner", VoiceRef: "v1"},
		Participant{ID: "victor", DisplayName: "Vic"},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		id   string
		want string
	}{
		{"sarah", "Sarah"},
		{"product_owner", "Product Owner"},
		{"victor", "Vic"},
	}
	for _, tt := range tests {
		p, ok := reg.Lookup(tt.id)
		if !ok {
			t.Fatalf("Lookup(%q) not found", tt.id)
		}
		if p.DisplayName != tt.want {
			t.Errorf("Lookup(%q).DisplayName = %q, want %q", tt.id, p.DisplayName, tt.want)
		}
	}

	if _, ok := reg.Lookup("ghost"); ok {
		t.Error("Lookup(ghost) should not be found")
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(Participant{ID: "a"}, Participant{ID: "a"})
	if !errors.Is(err, ErrDuplicateParticipant) {
		t.Errorf("NewRegistry() error = %v, want %v", err, ErrDuplicateParticipant)
	}
}

func TestRegistry_Nil(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Lookup("a"); ok {
		t.Error("nil registry Lookup should miss")
	}
	if reg.Len() != 0 {
		t.Error("nil registry Len should be 0")
	}
}

func TestParse_Fixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "daily.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if doc.Script.ID() != "daily" {
		t.Errorf("Script.ID() = %q, want daily", doc.Script.ID())
	}
	if doc.Kind != "daily" {
		t.Errorf("Kind = %q, want daily", doc.Kind)
	}
	if doc.Participants.Len() != 2 {
		t.Errorf("Participants.Len() = %d, want 2", doc.Participants.Len())
	}
	e, ok := doc.Effect("move-login-to-done")
	if !ok || e.Column != "done" || e.Item != "TICKET-9" {
		t.Errorf("Effect() = %+v, %v", e, ok)
	}

	errs := Validate(doc)
	if len(errs) != 2 {
		t.Fatalf("Validate() returned %d errors, want 2: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], ErrUnknownSpeaker) {
		t.Errorf("errs[0] = %v, want unknown speaker", errs[0])
	}
	if !errors.Is(errs[1], ErrUnboundSideEffect) {
		t.Errorf("errs[1] = %v, want unbound side effect", errs[1])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "id: x\nbogus: 1\nsegments:\n  - {id: a, speaker: s, text: t}\n"},
		{"no segments", "id: x\nparticipants: []\n"},
		{"bad action", "id: x\neffects:\n  - {id: e, action: delete, item: T}\nsegments:\n  - {id: a, speaker: s, text: t}\n"},
		{"move without column", "id: x\neffects:\n  - {id: e, action: move, item: T}\nsegments:\n  - {id: a, speaker: s, text: t}\n"},
		{"duplicate effect", "id: x\neffects:\n  - {id: e, action: open, item: T}\n  - {id: e, action: open, item: U}\nsegments:\n  - {id: a, speaker: s, text: t}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBytes([]byte(tt.yaml)); err == nil {
				t.Error("ParseBytes() should fail")
			}
		})
	}
}
