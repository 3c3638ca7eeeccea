// Package testutil provides contexts, fixtures and fakes for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"gopkg.in/yaml.v3"
)

// LoadFixture loads a file from the testdata directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", path))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", path, err)
	}
	return data
}

// LoadYAMLFixture loads a testdata file and decodes it as YAML.
func LoadYAMLFixture[T any](t *testing.T, path string) T {
	t.Helper()

	var result T
	if err := yaml.Unmarshal(LoadFixture(t, path), &result); err != nil {
		t.Fatalf("failed to parse YAML fixture %s: %v", path, err)
	}
	return result
}

// TempFile writes content to a file in a per-test directory and returns
// its path.
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to create temp file %s: %v", name, err)
	}
	return path
}

// WAV encodes d of silence as 8kHz mono 16-bit WAV.
func WAV(t *testing.T, d time.Duration) []byte {
	t.Helper()

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, beep.Take(format.SampleRate.N(d), beep.Silence(-1)), format); err != nil {
		f.Close()
		t.Fatalf("encode wav: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
