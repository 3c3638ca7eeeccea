package script

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// embeddedScripts holds the default meeting scripts shipped with the binary.
//
//go:embed scripts/*.yaml
var embeddedScripts embed.FS

const scriptExt = ".yaml"

// Loader finds script documents by name.
type Loader struct {
	dirs []string
}

// NewLoader creates a loader that searches the given directories in order
// and falls back to the embedded scripts.
func NewLoader(dirs ...string) *Loader {
	l := &Loader{}
	for _, dir := range dirs {
		if dir != "" {
			l.dirs = append(l.dirs, dir)
		}
	}
	return l
}

// AddSearchDir adds a directory searched before all existing ones.
func (l *Loader) AddSearchDir(dir string) {
	l.dirs = append([]string{dir}, l.dirs...)
}

// Load finds and parses the named script.
func (l *Loader) Load(name string) (*Document, error) {
	data, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	return doc, nil
}

// Exists reports whether a script can be found.
func (l *Loader) Exists(name string) bool {
	_, err := l.loadRaw(name)
	return err == nil
}

// List returns all available script names, sorted.
func (l *Loader) List() ([]string, error) {
	names := make(map[string]bool)

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), scriptExt) {
				names[strings.TrimSuffix(entry.Name(), scriptExt)] = true
			}
		}
	}

	entries, err := embeddedScripts.ReadDir("scripts")
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), scriptExt) {
				names[strings.TrimSuffix(entry.Name(), scriptExt)] = true
			}
		}
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

func (l *Loader) loadRaw(name string) ([]byte, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	filename := name + scriptExt

	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return data, nil
		}
	}

	data, err := embeddedScripts.ReadFile("scripts/" + filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	return data, nil
}
