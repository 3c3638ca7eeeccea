package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return m
}

func TestSaveConfig_SaveGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := SaveConfig{
		GlobalConfigDir: "scrumsim",
		ValidKeys:       []string{"synth_url", "synth_api_key", "verbose"},
	}
	path := filepath.Join(home, ".config", "scrumsim", "config.yaml")

	if err := cfg.SaveGlobal("synth_url", "http://gateway"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}
	if err := cfg.SaveGlobal("verbose", "TRUE"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	saved := readYAML(t, path)
	if saved["synth_url"] != "http://gateway" {
		t.Errorf("synth_url = %v", saved["synth_url"])
	}
	if saved["verbose"] != true {
		t.Errorf("verbose = %v, want bool true", saved["verbose"])
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("global config perm = %o, want 600", perm)
	}

	if err := cfg.SaveGlobal("nope", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("SaveGlobal(unknown) error = %v, want ErrUnknownKey", err)
	}

	if err := cfg.DeleteGlobalKey("synth_url"); err != nil {
		t.Fatal(err)
	}
	if _, ok := readYAML(t, path)["synth_url"]; ok {
		t.Error("synth_url should be deleted")
	}
}

func TestSaveConfig_SaveLocal(t *testing.T) {
	root := t.TempDir()
	cfg := SaveConfig{
		LocalConfigName: ".scrumsim.yaml",
		ValidKeys:       []string{"board", "github_token"},
		Secrets:         []string{"github_token"},
	}

	if err := cfg.SaveLocal(root, "board", "github"); err != nil {
		t.Fatalf("SaveLocal() error = %v", err)
	}
	if got := readYAML(t, filepath.Join(root, ".scrumsim.yaml"))["board"]; got != "github" {
		t.Errorf("board = %v", got)
	}

	if err := cfg.SaveLocal(root, "github_token", "ghp_x"); err == nil {
		t.Error("SaveLocal() should refuse secrets")
	}
	if err := cfg.SaveLocal("", "board", "memory"); err == nil {
		t.Error("SaveLocal() without git root should fail")
	}
}

func TestSaveConfig_DeleteMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := SaveConfig{GlobalConfigDir: "scrumsim"}
	if err := cfg.DeleteGlobalKey("anything"); err != nil {
		t.Errorf("DeleteGlobalKey() on missing file error = %v", err)
	}
}

func TestSaveConfig_NotConfigured(t *testing.T) {
	if err := (SaveConfig{}).SaveGlobal("k", "v"); err == nil {
		t.Error("SaveGlobal() without dir should fail")
	}
	if err := (SaveConfig{}).SaveLocal(t.TempDir(), "k", "v"); err == nil {
		t.Error("SaveLocal() without name should fail")
	}
}
