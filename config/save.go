package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey indicates a key outside the accepted set.
var ErrUnknownKey = errors.New("unknown config key")

// SaveConfig writes keys back to the global or local config file.
type SaveConfig struct {
	GlobalConfigDir  string
	GlobalConfigFile string
	LocalConfigName  string

	// ValidKeys restricts which keys may be written. Nil accepts all.
	ValidKeys []string

	// Secrets are written only to the global file, which is user-private.
	Secrets []string
}

func (c SaveConfig) globalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", errors.New("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := c.GlobalConfigFile
	if name == "" {
		name = "config.yaml"
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, name), nil
}

func (c SaveConfig) checkKey(key string) error {
	if len(c.ValidKeys) > 0 && !slices.Contains(c.ValidKeys, key) {
		return fmt.Errorf("%w: %s\n\nValid keys: %s", ErrUnknownKey, key, strings.Join(c.ValidKeys, ", "))
	}
	return nil
}

// SaveGlobal sets key in ~/.config/<dir>/config.yaml.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := c.checkKey(key); err != nil {
		return err
	}
	path, err := c.globalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return updateFile(path, 0o600, func(m map[string]any) { m[key] = parseValue(value) })
}

// SaveLocal sets key in the local config file under gitRoot. Secrets are
// refused because the local file is usually committed.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if gitRoot == "" {
		return errors.New("git root not found")
	}
	if c.LocalConfigName == "" {
		return errors.New("local config name not configured")
	}
	if err := c.checkKey(key); err != nil {
		return err
	}
	if slices.Contains(c.Secrets, key) {
		return fmt.Errorf("%s is a secret; save it globally or in the environment", key)
	}
	return updateFile(filepath.Join(gitRoot, c.LocalConfigName), 0o644, func(m map[string]any) {
		m[key] = parseValue(value)
	})
}

// DeleteGlobalKey removes a key from the global config.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.globalPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return updateFile(path, 0o600, func(m map[string]any) { delete(m, key) })
}

func updateFile(path string, perm os.FileMode, mutate func(map[string]any)) error {
	existing := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if existing == nil {
			existing = make(map[string]any)
		}
	}

	mutate(existing)

	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// parseValue stores booleans with their YAML type.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
