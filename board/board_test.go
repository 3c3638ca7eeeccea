package board

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
)

func TestIssueNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"TICKET-101", 101, false},
		{"#7", 7, false},
		{"42", 42, false},
		{"PROJ-0", 0, true},
		{"TICKET", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := IssueNumber(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidItem) {
					t.Errorf("IssueNumber(%q) error = %v, want ErrInvalidItem", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("IssueNumber(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSplitLabels(t *testing.T) {
	column, stale := splitLabels([]string{"bug", "status:backlog", "status:review"}, "status:sprint")
	if column != "backlog" {
		t.Errorf("column = %q, want backlog", column)
	}
	if len(stale) != 2 {
		t.Errorf("stale = %v, want both status labels", stale)
	}

	_, stale = splitLabels([]string{"status:sprint"}, "status:sprint")
	if len(stale) != 0 {
		t.Errorf("stale = %v, want none when already in column", stale)
	}
}

func TestHandler(t *testing.T) {
	b := NewMemoryBoard()

	tests := []struct {
		name    string
		binding script.EffectBinding
		wantErr error
	}{
		{"move", script.EffectBinding{ID: "m", Action: script.ActionMove, Item: "T-1", Column: "sprint"}, nil},
		{"open", script.EffectBinding{ID: "o", Action: script.ActionOpen, Item: "T-1"}, nil},
		{"move without column", script.EffectBinding{ID: "m", Action: script.ActionMove, Item: "T-1"}, ErrMissingColumn},
		{"no item", script.EffectBinding{ID: "o", Action: script.ActionOpen}, ErrInvalidItem},
		{"unknown action", script.EffectBinding{ID: "x", Action: "archive", Item: "T-1"}, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Handler(b, tt.binding)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Handler() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Handler() error = %v", err)
			}
			v, err := h(context.Background())
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if it, ok := v.(Item); !ok || it.ID != "T-1" {
				t.Errorf("handler value = %#v", v)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	b := NewMemoryBoard(Item{ID: "TICKET-101", Title: "Checkout"})
	d := sideeffect.New()

	bindings := []script.EffectBinding{
		{ID: "open-checkout", Action: script.ActionOpen, Item: "TICKET-101"},
		{ID: "move-checkout", Action: script.ActionMove, Item: "TICKET-101", Column: "sprint"},
	}
	if err := Register(d, b, bindings); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !d.Has("open-checkout") || !d.Has("move-checkout") {
		t.Fatalf("IDs() = %v", d.IDs())
	}

	res, ok := d.Dispatch(context.Background(), "p07", "move-checkout")
	if !ok || !res.OK() {
		t.Fatalf("Dispatch() = %+v, %v", res, ok)
	}
	if it, _ := b.Get("TICKET-101"); it.Column != "sprint" {
		t.Errorf("column = %q, want sprint", it.Column)
	}

	if err := Register(d, b, bindings[:1]); !errors.Is(err, sideeffect.ErrDuplicateHandler) {
		t.Errorf("second Register() error = %v, want ErrDuplicateHandler", err)
	}
}

func TestRegister_EmbeddedScripts(t *testing.T) {
	loader := script.NewLoader()
	for _, name := range []string{"refinement", "sprint-planning"} {
		doc, err := loader.Load(name)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", name, err)
		}
		if err := Register(sideeffect.New(), NewMemoryBoard(), doc.Effects); err != nil {
			t.Errorf("Register(%s) error = %v", name, err)
		}
	}
}
