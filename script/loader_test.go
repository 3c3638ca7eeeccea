package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Embedded(t *testing.T) {
	loader := NewLoader()

	for _, name := range []string{"refinement", "sprint-planning"} {
		t.Run(name, func(t *testing.T) {
			doc, err := loader.Load(name)
			if err != nil {
				t.Fatalf("Load(%q) error = %v", name, err)
			}
			if doc.Script.Len() == 0 {
				t.Error("embedded script has no segments")
			}
			if errs := Validate(doc); len(errs) > 0 {
				t.Errorf("embedded script %s does not validate: %v", name, errs)
			}
		})
	}
}

func TestLoader_DirectoryOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	custom := "id: refinement\ntitle: Custom\nparticipants:\n  - id: a\nsegments:\n  - {id: c1, speaker: a, text: Override}\n"
	if err := os.WriteFile(filepath.Join(dir, "refinement.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewLoader(dir).Load("refinement")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Script.Title() != "Custom" {
		t.Errorf("Title() = %q, want Custom", doc.Script.Title())
	}
}

func TestLoader_List(t *testing.T) {
	loader := NewLoader()
	loader.AddSearchDir("testdata")

	names, err := loader.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := map[string]bool{"daily": false, "refinement": false, "sprint-planning": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("List() missing %q: %v", n, names)
		}
	}
}

func TestLoader_NotFound(t *testing.T) {
	loader := NewLoader(t.TempDir())

	_, err := loader.Load("retrospective")
	if !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("Load() error = %v, want %v", err, ErrScriptNotFound)
	}
	if loader.Exists("../secrets") {
		t.Error("Exists() should reject path separators")
	}
}
